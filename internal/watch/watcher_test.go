package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rootsource/config"
)

func TestWatcherReloadsKeywords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("keywords:\n  greetings: [\"hi\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	applied := make(chan config.KeywordConfig, 1)
	w := New(path, true, func(kw config.KeywordConfig) {
		select {
		case applied <- kw:
		default:
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("keywords:\n  greetings: [\"yo\", \"howdy\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case kw := <-applied:
		if len(kw.Greetings) != 2 || kw.Greetings[0] != "yo" {
			t.Fatalf("unexpected reloaded greetings: %v", kw.Greetings)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("reload not observed")
	}
}

func TestWatcherDisabledIsNoop(t *testing.T) {
	w := New("/nonexistent/config.yaml", false, func(config.KeywordConfig) {
		t.Error("apply should not run when disabled")
	})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("disabled watcher should not error: %v", err)
	}
}
