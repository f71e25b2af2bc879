package imagerender

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfcpu looks for startxref by seeking this far back from the end and
// fails on anything shorter.
const trailerScanSize = 512

func init() {
	// keep pdfcpu from creating a config dir under $HOME
	api.DisableConfigDir()
}

// countPages asks pdfcpu for the page count. It is consulted only when
// MuPDF refuses a document, to tell an empty but well-formed PDF apart from
// a corrupt one.
func countPages(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	// whitespace after %%EOF keeps every xref offset valid
	if len(data) < trailerScanSize {
		data = append(data, bytes.Repeat([]byte{'\n'}, trailerScanSize-len(data))...)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}
