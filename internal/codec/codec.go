// Package codec turns uploaded files into transport payloads and local preview handles
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/gabriel-vasile/mimetype"
)

var ErrNotDataURI = errors.New("not a base64 data URI")

// Read loads the whole file into memory. Declared mime is trusted as is, sniffing only fills a gap.
func Read(r io.Reader, name, declaredMime string) (*model.UploadedImage, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil reader", model.ErrUnreadableFile)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrUnreadableFile, err)
	}

	mime := strings.TrimSpace(declaredMime)
	if mime == "" || mime == "application/octet-stream" {
		mime = mimetype.Detect(data).String()
		// для текстовых detect возвращает "text/plain; charset=utf-8" - отрезаем параметры
		if i := strings.IndexByte(mime, ';'); i >= 0 {
			mime = strings.TrimSpace(mime[:i])
		}
	}

	return &model.UploadedImage{Name: name, MimeType: mime, Data: data}, nil
}

// Encode returns standard base64 of the image payload
func Encode(img *model.UploadedImage) string {
	if img == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(img.Data)
}

func Preview(img *model.UploadedImage) model.PreviewHandle {
	if img == nil {
		return ""
	}
	return model.PreviewHandle(DataURI(img.MimeType, Encode(img)))
}

func DataURI(mime, b64 string) string {
	return "data:" + mime + ";base64," + b64
}

// DecodeDataURI parses data:<mime>;base64,<payload> and returns raw bytes with the mime
func DecodeDataURI(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return nil, "", ErrNotDataURI
	}

	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return nil, "", ErrNotDataURI
	}

	meta := s[len("data:"):idx] // "<mime>;base64"
	mime, enc, ok := strings.Cut(meta, ";")
	if !ok || enc != "base64" {
		return nil, "", ErrNotDataURI
	}

	data, err := base64.StdEncoding.DecodeString(s[idx+1:])
	if err != nil {
		return nil, "", fmt.Errorf("decode data URI payload: %w", err)
	}
	return data, mime, nil
}
