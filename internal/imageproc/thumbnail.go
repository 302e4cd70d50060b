// Package imageproc builds gallery thumbnails for archived animations
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/disintegration/imaging"
)

// ThumbSide - сторона квадратного превью в архиве
const ThumbSide = 256

// Thumbnailer crops and scales the image to x*y and encodes it in format
func Thumbnailer(r io.Reader, x, y int, format imaging.Format) (io.Reader, int64, error) {
	if r == nil {
		return nil, -1, errors.New("nil-reader baseIMG provided to Thumbnailer")
	}
	if x <= 0 || y <= 0 {
		return nil, -1, fmt.Errorf("incorrect thumbnail size %dx%d", x, y)
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to DEcode baseIMG in Thumbnailer: %w", err)
	}
	thumb := imaging.Thumbnail(img, x, y, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format); err != nil {
		return nil, 0, fmt.Errorf("failed to ENcode resultIMG in Thumbnailer: %w", err)
	}
	return &buf, int64(buf.Len()), nil
}

// FormatFor picks the thumbnail encoding for a result mime: PNG/GIF keep theirs, everything else becomes JPEG
func FormatFor(mime string) (imaging.Format, string) {
	switch mime {
	case model.PNG:
		return imaging.PNG, model.PNG
	case model.GIF:
		return imaging.GIF, model.GIF
	default:
		return imaging.JPEG, model.JPEG
	}
}
