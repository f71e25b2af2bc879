package filetype

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// PDFMIME is the only type the converter accepts.
const PDFMIME = "application/pdf"

// pdfHeaderWindow is how far into the file a PDF header may start. PDF
// readers tolerate leading junk before %PDF- within the first 1024 bytes.
const pdfHeaderWindow = 1024

var pdfHeader = []byte("%PDF-")

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType  string
	Extension string
}

// IsPDF reports whether the detected type is a PDF document.
func (i FileTypeInfo) IsPDF() bool { return i.MIMEType == PDFMIME }

// Detect detects the actual file type using magic bytes, not the object key
func Detect(filePath string) (FileTypeInfo, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return FileTypeInfo{}, fmt.Errorf("failed to detect file type: %w", err)
	}

	info := FileTypeInfo{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}
	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Str("file", filePath).Msg("detected file type")

	return info, nil
}

// DetectPDF reports whether the file at filePath is a PDF, along with the
// detected type. Files whose magic bytes are not a PDF still pass when a
// %PDF- header appears within the first 1024 bytes.
func DetectPDF(filePath string) (FileTypeInfo, bool, error) {
	info, err := Detect(filePath)
	if err != nil {
		return FileTypeInfo{}, false, err
	}
	if info.IsPDF() {
		return info, true, nil
	}

	f, err := os.Open(filePath)
	if err != nil {
		return info, false, fmt.Errorf("failed to read file header: %w", err)
	}
	defer f.Close()

	head := make([]byte, pdfHeaderWindow)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return info, false, fmt.Errorf("failed to read file header: %w", err)
	}
	return info, bytes.Contains(head[:n], pdfHeader), nil
}
