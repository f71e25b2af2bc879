package imagerender

import (
	"image"

	fitz "github.com/gen2brain/go-fitz"
)

// Doc abstracts an open PDF document for rasterization.
type Doc interface {
	NumPage() int
	// Render rasterizes the 0-based page at the given resolution.
	Render(page int, dpi float64) (image.Image, error)
	Close() error
}

// Opener abstracts opening a PDF path into a Doc.
type Opener interface {
	Open(path string) (Doc, error)
}

// fitzOpener implements Opener using github.com/gen2brain/go-fitz (MuPDF).
type fitzOpener struct{}

func (fitzOpener) Open(path string) (Doc, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return fitzDoc{doc}, nil
}

type fitzDoc struct{ d *fitz.Document }

func (f fitzDoc) NumPage() int { return f.d.NumPage() }

func (f fitzDoc) Render(page int, dpi float64) (image.Image, error) {
	img, err := f.d.ImageDPI(page, dpi)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (f fitzDoc) Close() error { return f.d.Close() }

// DefaultOpener renders with MuPDF.
var DefaultOpener Opener = fitzOpener{}
