package imagerender

import (
	"bytes"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/local/pdf2webp/internal/apperr"
	"github.com/local/pdf2webp/internal/filetype"
)

const (
	// Format is the output image format name recorded in the manifest.
	Format = "webp"

	DefaultDPI     = 150
	DefaultQuality = 85
)

// Options controls rasterization resolution and encoder quality.
type Options struct {
	DPI     int
	Quality int
}

// DefaultOptions returns 150 DPI at WebP quality 85.
func DefaultOptions() Options {
	return Options{DPI: DefaultDPI, Quality: DefaultQuality}
}

func (o Options) withDefaults() Options {
	if o.DPI <= 0 {
		o.DPI = DefaultDPI
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// PageImage is one encoded page. Bytes aliases the iterator's internal
// buffer and is only valid until the next call to Next or Close.
type PageImage struct {
	Index  int // 1-based
	Bytes  []byte
	Width  int
	Height int
}

// Pages yields encoded page images in document order, one at a time.
// At most one rasterized page and one encoded page are held at once.
type Pages struct {
	doc   Doc
	opts  Options
	total int
	next  int // 0-based index of the next page to render

	buf bytes.Buffer
	cur PageImage
	err error

	closed bool
}

// Open opens the PDF at path with MuPDF.
func Open(path string, opts Options) (*Pages, error) {
	return OpenWith(DefaultOpener, path, opts)
}

// OpenWith opens the PDF at path through opener. Failures are reported as
// *apperr.ProcessingError.
func OpenWith(opener Opener, path string, opts Options) (*Pages, error) {
	opts = opts.withDefaults()

	// MuPDF also opens images and e-books by content, so the
	// type is checked before the renderer sees the file.
	info, isPDF, err := filetype.DetectPDF(path)
	if err != nil {
		return nil, &apperr.ProcessingError{Message: "failed to inspect PDF", Err: err}
	}
	if !isPDF {
		return nil, &apperr.ProcessingError{
			Message: fmt.Sprintf("object is not a PDF (detected %s)", info.MIMEType),
		}
	}

	doc, err := opener.Open(path)
	if err != nil {
		return openEmpty(path, opts, err)
	}

	total := doc.NumPage()
	if total < 0 {
		_ = doc.Close()
		return nil, &apperr.ProcessingError{Message: "failed to open PDF", Err: fmt.Errorf("invalid page count %d", total)}
	}

	log.Debug().
		Str("path", path).
		Int("pages", total).
		Int("dpi", opts.DPI).
		Int("quality", opts.Quality).
		Msg("opened PDF for rendering")

	return &Pages{doc: doc, opts: opts, total: total}, nil
}

// openEmpty handles a document the renderer refused. A well-formed PDF
// without pages yields an empty iterator; anything else is corrupt.
func openEmpty(path string, opts Options, openErr error) (*Pages, error) {
	if n, cerr := countPages(path); cerr == nil && n == 0 {
		log.Warn().
			Err(openErr).
			Str("path", path).
			Msg("renderer refused document with zero pages; treating as empty")
		return &Pages{opts: opts}, nil
	}
	return nil, &apperr.ProcessingError{Message: "failed to open PDF", Err: openErr}
}

// Count returns the number of pages in the document.
func (p *Pages) Count() int { return p.total }

// Next renders and encodes the next page. It returns false when all pages
// are consumed or an error occurred; check Err afterwards.
func (p *Pages) Next() bool {
	if p.closed || p.err != nil || p.next >= p.total {
		return false
	}
	p.release()

	pageNum := p.next + 1
	img, err := p.doc.Render(p.next, float64(p.opts.DPI))
	if err != nil {
		p.err = &apperr.ProcessingError{Page: pageNum, Message: "failed to render page", Err: err}
		return false
	}

	bounds := img.Bounds()
	if err := EncodeWebP(&p.buf, img, p.opts.Quality); err != nil {
		p.err = &apperr.ProcessingError{Page: pageNum, Message: "failed to encode page", Err: err}
		return false
	}

	p.cur = PageImage{
		Index:  pageNum,
		Bytes:  p.buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
	p.next++

	log.Debug().
		Int("page", pageNum).
		Int("width", p.cur.Width).
		Int("height", p.cur.Height).
		Int("webp_size", len(p.cur.Bytes)).
		Msg("encoded page as WebP")

	return true
}

// Page returns the page produced by the last successful Next.
func (p *Pages) Page() PageImage { return p.cur }

// Err returns the first error encountered by Next.
func (p *Pages) Err() error { return p.err }

// Close releases the document. Safe to call more than once.
func (p *Pages) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.release()
	if p.doc == nil {
		return nil
	}
	return p.doc.Close()
}

func (p *Pages) release() {
	p.buf.Reset()
	p.cur = PageImage{}
}
