package imagerender

import (
	"fmt"
	"image"
	"io"

	"github.com/chai2010/webp"
)

// EncodeWebP writes img as lossy WebP at the given quality (0-100).
func EncodeWebP(w io.Writer, img image.Image, quality int) error {
	if err := webp.Encode(w, img, &webp.Options{
		Lossless: false,
		Quality:  float32(quality),
	}); err != nil {
		return fmt.Errorf("error encoding to webp: %w", err)
	}
	return nil
}
