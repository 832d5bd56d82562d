package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// RoundCoord rounds a coordinate to two decimal places (~1.1 km), the
// granularity at which nearby requests share cached dataset results.
func RoundCoord(v float64) float64 {
	return math.Round(v*100) / 100
}

func hashKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// DatasetKey identifies one dataset fetch: same dataset, same rounded
// coordinates, same lookback window, same calendar day share one entry.
func DatasetKey(dataset string, lat, lon float64, lookbackDays int, day time.Time) string {
	return hashKey(
		"dataset", dataset,
		fmt.Sprintf("%.2f", RoundCoord(lat)),
		fmt.Sprintf("%.2f", RoundCoord(lon)),
		fmt.Sprintf("%d", lookbackDays),
		day.UTC().Format("2006-01-02"),
	)
}

// TranslationKey identifies one translation of text between two languages.
func TranslationKey(text, src, dst string) string {
	return hashKey("translate", src, dst, text)
}

// LocationKey identifies a resolved location by client identity.
func LocationKey(clientID string) string {
	return hashKey("location", clientID)
}

// AnswerKey identifies a composed answer by normalized query text plus the
// sorted set of dataset identifiers it drew on.
func AnswerKey(query string, datasets []string) string {
	sorted := append([]string(nil), datasets...)
	sort.Strings(sorted)
	return hashKey(append([]string{"answer", query}, sorted...)...)
}
