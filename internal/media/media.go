package media

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"tijara/backend/internal/domain"
)

var (
	ErrNotFound        = errors.New("media not found")
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrTooLarge        = errors.New("media too large")
)

// extByType covers the image formats the product and pack forms accept.
var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DiskStore writes uploaded images into a flat directory, one file per media
// id. Filenames are generated server-side so client-supplied names never touch
// the filesystem.
type DiskStore struct {
	dir      string
	maxBytes int64
}

func NewDiskStore(dir string, maxBytes int64) (*DiskStore, error) {
	if maxBytes < 1 {
		maxBytes = 5 << 20
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir, maxBytes: maxBytes}, nil
}

// Save sniffs the content type from the payload head, rejects non-image
// uploads, and streams the body to disk. The reader is capped at maxBytes.
func (d *DiskStore) Save(r io.Reader) (domain.Media, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return domain.Media{}, err
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, supported := extByType[contentType]
	if !supported {
		return domain.Media{}, ErrUnsupportedType
	}

	id := uuid.NewString()
	path := filepath.Join(d.dir, id+ext)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return domain.Media{}, err
	}

	written, err := io.Copy(file, io.MultiReader(strings.NewReader(string(head)), io.LimitReader(r, d.maxBytes)))
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return domain.Media{}, err
	}
	if written > d.maxBytes {
		_ = os.Remove(path)
		return domain.Media{}, ErrTooLarge
	}

	return domain.Media{
		ID:          id + ext,
		ContentType: contentType,
		SizeBytes:   written,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Open returns the stored file and its content type. The id is reduced to its
// base name so path segments in the request cannot escape the media dir.
func (d *DiskStore) Open(id string) (*os.File, string, error) {
	id = filepath.Base(strings.TrimSpace(id))
	if id == "" || id == "." || id == string(filepath.Separator) {
		return nil, "", ErrNotFound
	}

	contentType := ""
	for ct, ext := range extByType {
		if strings.HasSuffix(id, ext) {
			contentType = ct
			break
		}
	}
	if contentType == "" {
		return nil, "", ErrNotFound
	}

	file, err := os.Open(filepath.Join(d.dir, id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return file, contentType, nil
}

func (d *DiskStore) Delete(id string) error {
	id = filepath.Base(strings.TrimSpace(id))
	if id == "" || id == "." {
		return ErrNotFound
	}
	if err := os.Remove(filepath.Join(d.dir, id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
