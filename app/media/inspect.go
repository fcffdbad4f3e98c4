package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrNotImage = errors.New("not an image")

// Info describes downloaded image data.
type Info struct {
	ContentType string
	Extension   string // with leading dot
	Size        int64
	Width       int // zero when the format cannot be decoded
	Height      int
}

// Inspect sniffs the content type of data and rejects anything that is not
// an image.
func Inspect(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, fmt.Errorf("image data is empty")
	}

	mt := mimetype.Detect(data)
	contentType := mt.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	if !strings.HasPrefix(contentType, "image/") {
		return Info{}, fmt.Errorf("%w: %s", ErrNotImage, contentType)
	}

	info := Info{
		ContentType: contentType,
		Extension:   mt.Extension(),
		Size:        int64(len(data)),
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		info.Width = cfg.Width
		info.Height = cfg.Height
	}

	return info, nil
}
