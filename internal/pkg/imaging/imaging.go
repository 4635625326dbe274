package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/nfnt/resize"
)

// ErrUnsupportedFormat is returned for images that are not jpeg, png or gif
var ErrUnsupportedFormat = errors.New("unsupported image format")

// JPEGQuality is used when re-encoding resized jpeg images
const JPEGQuality = 85

// Result is a processed image ready for upload
type Result struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

var formats = map[string]struct {
	contentType string
	ext         string
}{
	"jpeg": {"image/jpeg", ".jpg"},
	"png":  {"image/png", ".png"},
	"gif":  {"image/gif", ".gif"},
}

// Fit computes the dimensions of a width x height image scaled down to fit maxWidth x maxHeight.
// Images already inside the bounds keep their size.
func Fit(width, height, maxWidth, maxHeight uint) (uint, uint) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	widthRatio := float64(maxWidth) / float64(width)
	heightRatio := float64(maxHeight) / float64(height)

	if widthRatio < heightRatio {
		return maxWidth, uint(float64(height) * widthRatio)
	}
	return uint(float64(width) * heightRatio), maxHeight
}

// Process decodes an image, downscales it to fit the bounds and re-encodes it in its original format.
// Gif images are stored as uploaded to keep their animation frames.
func Process(r io.Reader, maxWidth, maxHeight uint) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	meta, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	result := &Result{
		Data:        raw,
		ContentType: meta.contentType,
		Ext:         meta.ext,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}

	newWidth, newHeight := Fit(uint(cfg.Width), uint(cfg.Height), maxWidth, maxHeight)
	if format == "gif" || (newWidth == uint(cfg.Width) && newHeight == uint(cfg.Height)) {
		return result, nil
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := resize.Resize(newWidth, newHeight, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: JPEGQuality})
	case "png":
		err = png.Encode(&buf, resized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	bounds := resized.Bounds()
	result.Data = buf.Bytes()
	result.Width = bounds.Dx()
	result.Height = bounds.Dy()
	return result, nil
}
