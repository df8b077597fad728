package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"mime"
	"path"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrInvalidImage wraps every rejection of an uploaded image
var ErrInvalidImage = errors.New("invalid image")

var formats = map[string]struct {
	format imaging.Format
	ext    string
}{
	"image/jpeg": {imaging.JPEG, "jpg"},
	"image/jpg":  {imaging.JPEG, "jpg"},
	"image/png":  {imaging.PNG, "png"},
	"image/gif":  {imaging.GIF, "gif"},
}

// Image is a decoded, size-bounded and re-encoded upload.
type Image struct {
	Content []byte
	Ext     string
}

// Normalizer turns data URLs into stored-ready images. Pictures larger than
// MaxWidth x MaxHeight are scaled down keeping the aspect ratio.
type Normalizer struct {
	MaxWidth  int
	MaxHeight int
	MaxBytes  int
	// MaxPixels bounds width*height of the source before it is decoded.
	// Zero means DefaultMaxPixels.
	MaxPixels int
}

// DefaultMaxPixels allows sources up to roughly 40 megapixels.
const DefaultMaxPixels = 40_000_000

// Normalize decodes a data URL such as "data:image/png;base64,...".
func (n Normalizer) Normalize(dataURL string) (*Image, error) {
	mediaType, payload, err := splitDataURL(dataURL)
	if err != nil {
		return nil, err
	}

	target, ok := formats[mediaType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidImage, mediaType)
	}

	if n.MaxBytes > 0 && base64.StdEncoding.DecodedLen(len(payload)) > n.MaxBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, n.MaxBytes)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	if err := n.checkDimensions(raw); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	img = n.fit(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, target.format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	return &Image{Content: buf.Bytes(), Ext: target.ext}, nil
}

// checkDimensions reads only the image header, so oversized sources are
// rejected before any pixel buffer is allocated.
func (n Normalizer) checkDimensions(raw []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	limit := n.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > limit/cfg.Height {
		return fmt.Errorf(
			"%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, limit,
		)
	}

	return nil
}

func (n Normalizer) fit(img image.Image) image.Image {
	bounds := img.Bounds()
	if n.MaxWidth <= 0 || n.MaxHeight <= 0 ||
		(bounds.Dx() <= n.MaxWidth && bounds.Dy() <= n.MaxHeight) {
		return img
	}

	return imaging.Fit(img, n.MaxWidth, n.MaxHeight, imaging.Lanczos)
}

func splitDataURL(dataURL string) (mediaType, payload string, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", "", fmt.Errorf("%w: not a data URL", ErrInvalidImage)
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", fmt.Errorf("%w: missing payload", ErrInvalidImage)
	}

	mediaType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", "", fmt.Errorf("%w: payload must be base64", ErrInvalidImage)
	}
	if payload == "" {
		return "", "", fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	return strings.ToLower(mediaType), payload, nil
}

// ContentType returns the MIME type served for a stored key.
func ContentType(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}

	return "application/octet-stream"
}
