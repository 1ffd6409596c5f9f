package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/futig/pdf-digest/internal/entity"
)

// ExtractMetadata reads file attributes for the file at path.
func ExtractMetadata(path string) (entity.DocumentMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return entity.DocumentMetadata{}, fmt.Errorf("%w: %w", entity.ErrUploadNotFound, err)
	}

	title, fileType := SplitName(filepath.Base(path))
	created, accessed := fileTimes(info)

	return entity.DocumentMetadata{
		Title:            title,
		FilePath:         path,
		FileName:         title,
		FileType:         fileType,
		FileSize:         info.Size(),
		CreationDate:     created,
		LastModifiedDate: info.ModTime(),
		LastAccessedDate: accessed,
	}, nil
}

// SplitName splits a base file name into title and extension on the last dot.
//
//	report.pdf          -> "report", "pdf"
//	report              -> "report", ""
//	q3.final.report.pdf -> "q3.final.report", "pdf"
//	.pdf                -> ".pdf", ""   (hidden file, no extension)
//	report.             -> "report", ""
func SplitName(name string) (title, fileType string) {
	dot := strings.LastIndex(name, ".")
	if dot <= 0 {
		return name, ""
	}

	return name[:dot], name[dot+1:]
}
