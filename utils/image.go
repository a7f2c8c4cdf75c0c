package utils

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"golang.org/x/image/draw"
)

const (
	MaxImageWidth = 800
	JPEGQuality   = 80
)

var ErrInvalidBase64 = errors.New("image is not valid base64")

// DecodeDataURL strips an optional "data:<mime>;base64," prefix and decodes the payload.
func DecodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 {
			return nil, ErrInvalidBase64
		}
		s = s[i+1:]
	}
	if s == "" {
		return nil, ErrInvalidBase64
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidBase64
	}
	return raw, nil
}

// ShrinkImage re-encodes an image data URL as a JPEG no wider than maxWidth.
// Images the decoder doesn't understand come back unchanged with ok=false.
func ShrinkImage(dataURL string, maxWidth int) (out string, ok bool, err error) {
	raw, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", false, err
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return dataURL, false, nil
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	var dst image.Image = src
	if w > maxWidth {
		h = h * maxWidth / w
		if h < 1 {
			h = 1
		}
		w = maxWidth
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, b, draw.Over, nil)
		dst = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return dataURL, false, nil
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), true, nil
}
