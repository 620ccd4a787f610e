package logocache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "logo_cache.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c
}

func TestPutGetRoundTrip(t *testing.T) {
	c := newTestCache(t)
	if err := c.Put("Django", "https://static.djangoproject.com/img/logo.svg"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := c.Get("Django")
	if !ok || got != "https://static.djangoproject.com/img/logo.svg" {
		t.Fatalf("Get returned %q %v", got, ok)
	}
}

func TestNormalizedVariantsCollide(t *testing.T) {
	c := newTestCache(t)
	if err := c.Put("Django", "https://example.com/django.png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	for _, variant := range []string{"Django ", "django", " DJANGO", "  djAnGo  "} {
		if got, ok := c.Get(variant); !ok || got != "https://example.com/django.png" {
			t.Fatalf("variant %q: got %q %v", variant, got, ok)
		}
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	if got := Normalize("  Visual   Studio\tCode "); got != "visual studio code" {
		t.Fatalf("Normalize: %q", got)
	}
}

func TestPutRejectsInvalidURL(t *testing.T) {
	c := newTestCache(t)
	for _, bad := range []string{"", "not a url", "ftp://example.com/a.png", "https://"} {
		if err := c.Put("x", bad); !errors.Is(err, ErrInvalidURL) {
			t.Fatalf("url %q: expected ErrInvalidURL, got %v", bad, err)
		}
	}
	if c.Len() != 0 {
		t.Fatalf("invalid puts must not store entries")
	}
}

func TestPutRejectsEmptyKey(t *testing.T) {
	c := newTestCache(t)
	for _, bad := range []string{"", "   ", "\t\n"} {
		err := c.Put(bad, "https://example.com/a.png")
		if !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", bad, err)
		}
		if errors.Is(err, ErrInvalidURL) {
			t.Fatalf("key %q: a bad key must not report a bad URL", bad)
		}
	}
	if c.Len() != 0 {
		t.Fatalf("invalid keys must not store entries")
	}
}

func TestCacheSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo_cache.json")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Put("Node.js", "https://nodejs.org/static/logo.svg"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got, ok := reopened.Get("node.js"); !ok || got != "https://nodejs.org/static/logo.svg" {
		t.Fatalf("entry lost across reopen: %q %v", got, ok)
	}
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo_cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
}

func TestDefaultKey(t *testing.T) {
	c := newTestCache(t)
	if _, ok := c.Default(); ok {
		t.Fatalf("expected no default")
	}
	if err := c.Put(DefaultKey, "https://example.com/default.png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got, ok := c.Default(); !ok || got != "https://example.com/default.png" {
		t.Fatalf("Default: %q %v", got, ok)
	}
}

func TestConcurrentPutsForDistinctKeys(t *testing.T) {
	c := newTestCache(t)
	keys := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	var wg sync.WaitGroup
	for _, k := range keys {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			if err := c.Put(k, "https://example.com/"+k+".png"); err != nil {
				t.Errorf("Put %s: %v", k, err)
			}
		}(k)
	}
	wg.Wait()
	for _, k := range keys {
		if got, ok := c.Get(k); !ok || got != "https://example.com/"+k+".png" {
			t.Fatalf("lost update for %s: %q %v", k, got, ok)
		}
	}
}

func TestConcurrentPutsForSameKeyLastWriterWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo_cache.json")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	urls := []string{
		"https://example.com/one.png",
		"https://example.com/two.png",
		"https://example.com/three.png",
		"https://example.com/four.png",
	}
	var wg sync.WaitGroup
	for _, u := range urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			if err := c.Put("alpha", u); err != nil {
				t.Errorf("Put %s: %v", u, err)
			}
		}(u)
	}
	wg.Wait()

	got, ok := c.Get("alpha")
	if !ok {
		t.Fatalf("entry missing after concurrent puts")
	}
	winner := false
	for _, u := range urls {
		if got == u {
			winner = true
		}
	}
	if !winner {
		t.Fatalf("stored value %q was never written", got)
	}
	if c.Len() != 1 {
		t.Fatalf("expected one entry, got %d", c.Len())
	}

	// The persisted file agrees with memory.
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if persisted, ok := reopened.Get("alpha"); !ok || persisted != got {
		t.Fatalf("disk state %q diverged from memory %q", persisted, got)
	}
}
