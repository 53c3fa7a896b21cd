package domain

// SourceKind identifies which side of the reconciliation a document feeds.
type SourceKind string

const (
	SourceWorkLog      SourceKind = "work_log"
	SourceInvoiceSheet SourceKind = "invoice_sheet"
	SourceInvoicePDF   SourceKind = "invoice_pdf"
)

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeXLSX FileType = "xlsx"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF:  "application/pdf",
	FileTypeXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// SniffedContentTypes maps what http.DetectContentType reports for each
// FileType. An xlsx workbook is a zip container.
var SniffedContentTypes = map[FileType]string{
	FileTypePDF:  "application/pdf",
	FileTypeXLSX: "application/zip",
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"xlsx": FileTypeXLSX,
}

// KindFileTypes lists which FileType each SourceKind accepts.
var KindFileTypes = map[SourceKind]FileType{
	SourceWorkLog:      FileTypeXLSX,
	SourceInvoiceSheet: FileTypeXLSX,
	SourceInvoicePDF:   FileTypePDF,
}
