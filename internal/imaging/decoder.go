package imaging

import (
	"bytes"
	"io"

	"github.com/disintegration/imaging"

	// Register the formats the pipeline accepts beyond JPEG/PNG.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	apperrors "go-lowlight-vision/internal/errors"
)

// ImageDecoder turns an encoded byte stream into an ImageSample. The core
// depends only on this contract, never on a concrete decode surface.
type ImageDecoder interface {
	Decode(r io.Reader) (*ImageSample, error)
}

type stdDecoder struct{}

// NewDecoder returns the default in-process decoder.
func NewDecoder() ImageDecoder {
	return &stdDecoder{}
}

func (d *stdDecoder) Decode(r io.Reader) (*ImageSample, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to decode image", err)
	}
	return FromImage(img), nil
}

// DecodeBytes is a convenience wrapper for callers holding the full payload.
func DecodeBytes(d ImageDecoder, data []byte) (*ImageSample, error) {
	return d.Decode(bytes.NewReader(data))
}
