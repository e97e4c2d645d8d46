// internal/scene/image.go
package scene

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

// DecodedImage is an image payload with its pixel size.
type DecodedImage struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

// DecodeImage accepts a data URL or bare base64 and reads the image header.
func DecodeImage(payload string) (DecodedImage, error) {
	raw := strings.TrimSpace(payload)
	if strings.HasPrefix(raw, "data:") {
		meta, data, ok := strings.Cut(raw, ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return DecodedImage{}, fmt.Errorf("%w: unsupported data URL", ErrMalformedContent)
		}
		raw = data
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(raw); err != nil {
			return DecodedImage{}, fmt.Errorf("%w: image is not base64: %v", ErrMalformedContent, err)
		}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return DecodedImage{}, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return DecodedImage{}, fmt.Errorf("%w: image has no pixels", ErrMalformedContent)
	}
	return DecodedImage{Data: data, MIMEType: "image/" + format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Fit scales an image object the way a canvas "scale to width, then to
// height" does: each requested dimension sets a uniform scale and the later
// one wins.
func Fit(obj *Object, width, height float64) {
	if width > 0 && obj.Width > 0 {
		s := width / obj.Width
		obj.ScaleX, obj.ScaleY = s, s
	}
	if height > 0 && obj.Height > 0 {
		s := height / obj.Height
		obj.ScaleX, obj.ScaleY = s, s
	}
}
