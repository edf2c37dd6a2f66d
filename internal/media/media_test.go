package media

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// minimal valid PNG header so DetectContentType reports image/png.
var pngHeader = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func newTestStore(t *testing.T, maxBytes int64) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir(), maxBytes)
	if err != nil {
		t.Fatalf("new disk store: %v", err)
	}
	return store
}

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store := newTestStore(t, 1<<20)

	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0xab}, 600)...)
	saved, err := store.Save(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ContentType != "image/png" {
		t.Fatalf("expected image/png, got %s", saved.ContentType)
	}
	if saved.SizeBytes != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), saved.SizeBytes)
	}
	if !strings.HasSuffix(saved.ID, ".png") {
		t.Fatalf("expected .png suffix, got %s", saved.ID)
	}

	file, contentType, err := store.Open(saved.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()
	if contentType != "image/png" {
		t.Fatalf("expected image/png on open, got %s", contentType)
	}
	stored, err := io.ReadAll(file)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(stored, payload) {
		t.Fatalf("stored payload differs from upload")
	}
}

func TestSaveRejectsNonImage(t *testing.T) {
	store := newTestStore(t, 1<<20)

	_, err := store.Save(strings.NewReader("%PDF-1.7 definitely not an image"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestSaveRejectsOversizedPayload(t *testing.T) {
	store := newTestStore(t, 1024)

	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x01}, 4096)...)
	_, err := store.Save(bytes.NewReader(payload))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestOpenRejectsPathTraversal(t *testing.T) {
	store := newTestStore(t, 1<<20)

	if _, _, err := store.Open("../../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for traversal id, got %v", err)
	}
	if _, _, err := store.Open("missing.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing file, got %v", err)
	}
}
