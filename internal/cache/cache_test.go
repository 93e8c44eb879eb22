package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	k1 := Key("facts", "hash", "2")
	k2 := Key("facts", "hash", "2")
	k3 := Key("factsh", "ash", "2")

	if k1 != k2 {
		t.Errorf("Expected equal keys for equal parts")
	}
	if k1 == k3 {
		t.Errorf("Expected different keys when parts are split differently")
	}
	if !strings.HasPrefix(k1, "biasprobe:v1:") {
		t.Errorf("Expected versioned prefix, got %s", k1)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	value := []byte("one")
	if err := c.Set("k", value, 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	value[0] = 'X'

	got, ok := c.Get("k")
	if !ok || string(got) != "one" {
		t.Errorf("Expected stored copy 'one', got %q (found=%v)", got, ok)
	}
	got[0] = 'Y'
	if again, _ := c.Get("k"); string(again) != "one" {
		t.Errorf("Expected returned value to be a copy, got %q", again)
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected entry to be deleted")
	}

	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("Expected 2 hits and 1 miss, got %d and %d", hits, misses)
	}

	_ = c.Clear()
	if hits, misses := c.Stats(); hits != 0 || misses != 0 {
		t.Errorf("Expected counters reset by Clear, got %d and %d", hits, misses)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Minute)
	_ = c.Set("short", []byte("v"), time.Millisecond)
	_ = c.Set("long", []byte("v"), 0)

	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Error("Expected entry past its ttl to miss")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("Expected default ttl entry to be found")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set("biasprobe:v1:abc", []byte("payload"), 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, ok := c.Get("biasprobe:v1:abc")
	if !ok || string(got) != "payload" {
		t.Fatalf("Expected payload, got %q (found=%v)", got, ok)
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get("biasprobe:v1:abc"); ok {
		t.Error("Expected expired entry to miss")
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*"+diskSuffix))
	if len(matches) != 0 {
		t.Errorf("Expected expired entry file removed, got %v", matches)
	}
}

func TestDiskCache_ClearKeepsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "keep.txt")
	if err := os.WriteFile(other, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewDiskCache(dir, time.Hour)
	_ = c.Set("a", []byte("1"), 0)
	_ = c.Set("b", []byte("2"), 0)

	if err := c.Clear(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Expected cleared entry to miss")
	}
	if _, err := os.Stat(other); err != nil {
		t.Errorf("Expected unrelated file to survive Clear, got %v", err)
	}
	if err := c.Delete("never-set"); err != nil {
		t.Errorf("Expected deleting a missing entry to succeed, got %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	_ = disk.Set("k", []byte("from disk"), 0)

	memory := NewMemoryCache(time.Minute, time.Minute)
	c := NewLayers(memory, disk)

	got, ok := c.Get("k")
	if !ok || string(got) != "from disk" {
		t.Fatalf("Expected disk value, got %q (found=%v)", got, ok)
	}
	if _, ok := memory.Get("k"); !ok {
		t.Error("Expected disk hit promoted to memory")
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss")
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d and %d", hits, misses)
	}
}

func TestLoadStore(t *testing.T) {
	type entry struct {
		Hits int      `json:"hits"`
		Tags []string `json:"tags"`
	}

	c := NewLayeredCache(time.Minute, t.TempDir(), time.Hour)
	if err := Store(c, "k", entry{Hits: 2, Tags: []string{"a"}}, 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, ok := Load[entry](c, "k")
	if !ok || got.Hits != 2 || len(got.Tags) != 1 {
		t.Errorf("Expected stored entry, got %+v (found=%v)", got, ok)
	}

	_ = c.Set("bad", []byte("{not json"), 0)
	if _, ok := Load[entry](c, "bad"); ok {
		t.Error("Expected undecodable value to miss")
	}

	if _, ok := Load[entry](Nop{}, "k"); ok {
		t.Error("Expected Nop cache to miss")
	}
}
