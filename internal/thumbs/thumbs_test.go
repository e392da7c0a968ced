package thumbs

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTestImage writes a small solid PNG and returns its path.
func writeTestImage(t *testing.T, dir, name string, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return path
}

func TestCacheKeyIsDeterministic(t *testing.T) {
	t.Parallel()

	g := New(t.TempDir(), false)
	defer g.Close()

	a := g.CacheKey("movies/a.mp4")
	b := g.CacheKey("movies/a.mp4")
	if a != b {
		t.Errorf("Same path produced different keys: %q != %q", a, b)
	}
	if a == g.CacheKey("movies/b.mp4") {
		t.Error("Different paths should produce different keys")
	}
	if filepath.Ext(a) != ".jpg" {
		t.Errorf("Cache key should end in .jpg: %q", a)
	}
}

func TestExistsBeforeGeneration(t *testing.T) {
	t.Parallel()

	g := New(t.TempDir(), true)
	defer g.Close()

	if g.Exists("never/made.mp4") {
		t.Error("Exists should be false before generation")
	}
}

func TestEnqueueGeneratesThumbnail(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	source := writeTestImage(t, srcDir, "photo.png", 800, 600)

	cacheDir := filepath.Join(t.TempDir(), "cache")
	g := New(cacheDir, true)
	defer g.Close()

	g.Enqueue(source, "photo.png")

	select {
	case ready := <-g.Ready():
		if ready.SourcePath != source {
			t.Errorf("Ready.SourcePath = %q, want %q", ready.SourcePath, source)
		}
		if ready.ThumbnailPath != g.CachePath("photo.png") {
			t.Errorf("Ready.ThumbnailPath = %q, want %q",
				ready.ThumbnailPath, g.CachePath("photo.png"))
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Timed out waiting for thumbnail generation")
	}

	if !g.Exists("photo.png") {
		t.Error("Artifact should exist after generation")
	}

	// The artifact fits within the bounding box.
	f, err := os.Open(g.CachePath("photo.png"))
	if err != nil {
		t.Fatalf("Failed to open artifact: %v", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("Failed to decode artifact: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("Artifact format = %q, want jpeg", format)
	}
	if cfg.Width > thumbSize || cfg.Height > thumbSize {
		t.Errorf("Artifact %dx%d exceeds bounding box %d", cfg.Width, cfg.Height, thumbSize)
	}
}

func TestEnqueueDisabledIsNoOp(t *testing.T) {
	t.Parallel()

	cacheDir := t.TempDir()
	g := New(cacheDir, false)
	defer g.Close()

	g.Enqueue("/nowhere/x.png", "x.png")

	// Give a would-be worker a moment; nothing should appear.
	time.Sleep(50 * time.Millisecond)
	if g.Exists("x.png") {
		t.Error("Disabled generator must not produce artifacts")
	}
}

func TestEnqueueUndecodableSourceProducesNoArtifact(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	source := filepath.Join(srcDir, "broken.png")
	if err := os.WriteFile(source, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("Failed to write broken file: %v", err)
	}

	g := New(filepath.Join(t.TempDir(), "cache"), true)

	g.Enqueue(source, "broken.png")

	// Close waits for the workers to stop before returning.
	g.Close()

	if g.Exists("broken.png") {
		t.Error("Undecodable source should not produce an artifact")
	}
}

func TestCloseIsIdempotentAndClosesReady(t *testing.T) {
	t.Parallel()

	g := New(t.TempDir(), true)
	g.Close()
	g.Close()

	if _, ok := <-g.Ready(); ok {
		t.Error("Ready channel should be closed after Close")
	}
}
