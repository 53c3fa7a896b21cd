package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"medrecon/internal/domain"
	"medrecon/internal/pipeline"
)

// sniffLen is how many leading bytes http.DetectContentType looks at.
const sniffLen = 512

// ValidateSource checks one source document before it is read: the extension
// must be the one its kind accepts, the size must be within maxBytes and the
// leading bytes must look like that file type.
func ValidateSource(kind domain.SourceKind, name string, size int64, head []byte, maxBytes int64) error {
	want, ok := domain.KindFileTypes[kind]
	if !ok {
		return fmt.Errorf("unknown source kind %q", kind)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok || fileType != want {
		return fmt.Errorf("%s %q: %w", kind, name, domain.ErrUnsupportedFileType)
	}

	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%s %q: %w", kind, name, domain.ErrFileTooLarge)
	}

	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if http.DetectContentType(head) != domain.SniffedContentTypes[fileType] {
		return fmt.Errorf("%s %q: %w", kind, name, domain.ErrUnsupportedFileType)
	}
	return nil
}

// LoadSource validates and reads one uploaded file.
func LoadSource(kind domain.SourceKind, fh *multipart.FileHeader, maxBytes int64) (pipeline.SourceFile, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return pipeline.SourceFile{}, fmt.Errorf("%s %q: %w", kind, fh.Filename, domain.ErrFileTooLarge)
	}

	f, err := fh.Open()
	if err != nil {
		return pipeline.SourceFile{}, fmt.Errorf("opening %s %q: %w", kind, fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return pipeline.SourceFile{}, fmt.Errorf("reading %s %q: %w", kind, fh.Filename, err)
	}
	if err := ValidateSource(kind, fh.Filename, int64(len(data)), data, maxBytes); err != nil {
		return pipeline.SourceFile{}, err
	}
	return pipeline.SourceFile{Name: fh.Filename, Data: data}, nil
}

func loadSources(input ReconcileInput, maxBytes int64) (pipeline.Sources, error) {
	var src pipeline.Sources
	groups := []struct {
		kind  domain.SourceKind
		files []*multipart.FileHeader
		dst   *[]pipeline.SourceFile
	}{
		{domain.SourceWorkLog, input.WorkLogs, &src.WorkLogs},
		{domain.SourceInvoiceSheet, input.InvoiceSheets, &src.InvoiceSheets},
		{domain.SourceInvoicePDF, input.InvoicePDFs, &src.InvoicePDFs},
	}
	for _, g := range groups {
		for _, fh := range g.files {
			sf, err := LoadSource(g.kind, fh, maxBytes)
			if err != nil {
				return pipeline.Sources{}, err
			}
			*g.dst = append(*g.dst, sf)
		}
	}
	return src, nil
}
