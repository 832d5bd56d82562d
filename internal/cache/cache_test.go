package cache

import (
	"sync"
	"testing"
	"time"
)

func TestGetMissAndHit(t *testing.T) {
	s := New()
	if _, ok := s.Get("absent"); ok {
		t.Fatal("expected miss")
	}
	s.Set("k", "v", time.Minute)
	v, ok := s.Get("k")
	if !ok || v.(string) != "v" {
		t.Fatalf("expected hit with v, got %v %v", v, ok)
	}
}

func TestExpiredEntryEvictedOnRead(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewWithClock(func() time.Time { return now })
	s.Set("k", 42, time.Minute)
	now = now.Add(2 * time.Minute)
	if _, ok := s.Get("k"); ok {
		t.Fatal("expected expiry")
	}
	if s.Len() != 0 {
		t.Fatalf("expected lazy eviction, len=%d", s.Len())
	}
}

func TestNonPositiveTTLStoresNothing(t *testing.T) {
	s := New()
	s.Set("k", "v", 0)
	if _, ok := s.Get("k"); ok {
		t.Fatal("zero ttl should not store")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set("shared", j, time.Minute)
				s.Get("shared")
			}
		}()
	}
	wg.Wait()
	if _, ok := s.Get("shared"); !ok {
		t.Fatal("expected final value present")
	}
}

func TestDatasetKeyRounding(t *testing.T) {
	day := time.Date(2026, 8, 25, 13, 0, 0, 0, time.UTC)
	a := DatasetKey("climate", 23.8103, 90.4125, 30, day)
	b := DatasetKey("climate", 23.8099, 90.4101, 30, day)
	if a != b {
		t.Fatal("coordinates within 2dp rounding should share a key")
	}
	c := DatasetKey("climate", 23.8103, 90.4125, 30, day.Add(24*time.Hour))
	if a == c {
		t.Fatal("different calendar days should not share a key")
	}
	d := DatasetKey("vegetation", 23.8103, 90.4125, 30, day)
	if a == d {
		t.Fatal("different datasets should not share a key")
	}
}

func TestAnswerKeyOrderInsensitive(t *testing.T) {
	a := AnswerKey("when to plant rice", []string{"climate", "vegetation"})
	b := AnswerKey("when to plant rice", []string{"vegetation", "climate"})
	if a != b {
		t.Fatal("dataset order should not change the answer key")
	}
	c := AnswerKey("when to plant rice", []string{"climate"})
	if a == c {
		t.Fatal("different dataset sets should not share a key")
	}
}
