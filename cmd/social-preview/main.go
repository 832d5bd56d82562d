// Command social-preview renders the 1200x630 link-preview banner.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	bannerWidth  = 1200
	bannerHeight = 630
)

var (
	topColor    = color.RGBA{R: 0x0b, G: 0x3d, B: 0x20, A: 0xff}
	bottomColor = color.RGBA{R: 0x12, G: 0x63, B: 0x30, A: 0xff}
	accentColor = color.RGBA{R: 0x2e, G: 0xcc, B: 0x71, A: 0xff}
	textColor   = color.RGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff}
)

func main() {
	out := flag.String("out", "social_preview.png", "output PNG path")
	title := flag.String("title", "RootSource AI", "banner title")
	subtitle := flag.String("subtitle", "Satellite-backed farming advice for every field", "banner subtitle")
	flag.Parse()

	banner := image.NewRGBA(image.Rect(0, 0, bannerWidth, bannerHeight))
	paintGradient(banner)
	paintAccentBar(banner)

	// basicfont is tiny, so text is rendered small and scaled up with
	// nearest-neighbor to keep the pixel look crisp.
	drawScaledText(banner, *title, 6, bannerHeight/2-120)
	drawScaledText(banner, *subtitle, 2, bannerHeight/2+40)

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create %s: %v", *out, err)
	}
	defer f.Close()
	if err := png.Encode(f, banner); err != nil {
		log.Fatalf("encode png: %v", err)
	}
	log.Printf("wrote %s (%dx%d)", *out, bannerWidth, bannerHeight)
}

func paintGradient(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		t := float64(y-b.Min.Y) / float64(b.Dy())
		c := color.RGBA{
			R: lerp(topColor.R, bottomColor.R, t),
			G: lerp(topColor.G, bottomColor.G, t),
			B: lerp(topColor.B, bottomColor.B, t),
			A: 0xff,
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func paintAccentBar(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Max.Y - 16; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, accentColor)
		}
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

// drawScaledText renders one centered line at the given vertical position.
func drawScaledText(dst *image.RGBA, text string, scale, y int) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	small := image.NewRGBA(image.Rect(0, 0, width+2, face.Height+2))

	d := font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(1, face.Ascent+1),
	}
	d.DrawString(text)

	sw := small.Bounds().Dx() * scale
	sh := small.Bounds().Dy() * scale
	x := (dst.Bounds().Dx() - sw) / 2
	target := image.Rect(x, y, x+sw, y+sh)
	xdraw.NearestNeighbor.Scale(dst, target, small, small.Bounds(), xdraw.Over, nil)
}
