package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func TestInspectPNG(t *testing.T) {
	data := pngBytes(t, 3, 2)

	info, err := Inspect(data)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if info.ContentType != "image/png" {
		t.Errorf("Expected content type 'image/png', got: %s", info.ContentType)
	}
	if info.Extension != ".png" {
		t.Errorf("Expected extension '.png', got: %s", info.Extension)
	}
	if info.Width != 3 || info.Height != 2 {
		t.Errorf("Expected 3x2, got: %dx%d", info.Width, info.Height)
	}
	if info.Size != int64(len(data)) {
		t.Errorf("Expected size %d, got: %d", len(data), info.Size)
	}
}

func TestInspectRejectsNonImages(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("<html><body>not found</body></html>"), []byte("plain text")} {
		if _, err := Inspect(data); err == nil {
			t.Errorf("Expected error for %q", data)
		}
	}
}

func TestStoreSaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	data := pngBytes(t, 1, 1)

	rel, created, err := store.Save(data, ".png")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !created {
		t.Error("Expected a new file to be created")
	}

	if !strings.HasSuffix(rel, ".png") || filepath.Dir(rel) != rel[:2] {
		t.Errorf("Expected content addressed path, got: %s", rel)
	}

	stored, err := os.ReadFile(filepath.Join(dir, rel))
	if err != nil {
		t.Fatalf("Expected stored file, got: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Error("Expected stored bytes to match")
	}

	again, created, err := store.Save(data, ".png")
	if err != nil || again != rel || created {
		t.Errorf("Expected identical existing path for identical data, got: %s, %v, %v", again, created, err)
	}

	if err := store.Remove(rel); err != nil {
		t.Fatalf("Expected no error removing file, got: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, rel)); !os.IsNotExist(err) {
		t.Error("Expected file to be removed")
	}
	if err := store.Remove(rel); err != nil {
		t.Errorf("Expected removing a missing file to succeed, got: %v", err)
	}
}
