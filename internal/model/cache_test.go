package model

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/midgard-pose/pkg/formats"
)

// writeModel saves b as a .gltf file with an embedded data URI buffer.
func writeModel(t *testing.T, path string, b *docBuilder) {
	t.Helper()
	doc := b.doc
	doc.Buffers = []formats.GLTFBuffer{{
		URI:        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(b.bin),
		ByteLength: len(b.bin),
	}}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestCache_HitsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leg.gltf")
	writeModel(t, path, leg())

	c := NewCache(Options{})
	first, err := c.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first.Name != "leg.gltf" {
		t.Errorf("Name = %q, want leg.gltf", first.Name)
	}

	again, err := c.Load(path)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if again != first {
		t.Error("unchanged file was reloaded")
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("Stats = %d hits, %d misses, want 1/1", hits, misses)
	}

	// Rewrite with a different clip and push the mtime forward.
	b := leg()
	b.doc.Animations[0].Name = "limp"
	writeModel(t, path, b)
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	changed, err := c.Load(path)
	if err != nil {
		t.Fatalf("Load after change: %v", err)
	}
	if changed == first {
		t.Fatal("changed file served from cache")
	}
	if _, ok := changed.ClipByName("limp"); !ok {
		t.Error("reloaded model lacks the new clip")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCache_InvalidateAndClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leg.gltf")
	writeModel(t, path, leg())

	c := NewCache(Options{})
	first, err := c.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	c.Invalidate(path)
	if c.Len() != 0 {
		t.Fatalf("Len after Invalidate = %d", c.Len())
	}
	second, err := c.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if second == first {
		t.Error("Invalidate did not force a reload")
	}

	c.Clear()
	if hits, misses := c.Stats(); hits != 0 || misses != 0 || c.Len() != 0 {
		t.Errorf("after Clear: %d hits, %d misses, %d entries", hits, misses, c.Len())
	}
}

func TestCache_Errors(t *testing.T) {
	c := NewCache(Options{})
	if _, err := c.Load(filepath.Join(t.TempDir(), "missing.glb")); err == nil {
		t.Error("Load of a missing file succeeded")
	}

	path := filepath.Join(t.TempDir(), "broken.gltf")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := c.Load(path); err == nil {
		t.Error("Load of a broken file succeeded")
	}
	if c.Len() != 0 {
		t.Errorf("failed load was cached")
	}
}
