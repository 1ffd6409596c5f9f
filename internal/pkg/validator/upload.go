package validator

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/entity"
)

var AllowedExtensions = map[string]bool{
	".pdf": true,
}

const pdfContentType = "application/pdf"

// Validator validates file uploads
type Validator struct {
	cfg config.FileUploadConfig
}

func NewFileValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateUpload checks that the upload is a single non-empty PDF within the size limit
func (v *Validator) ValidateUpload(upload *entity.Upload) error {
	if upload == nil || upload.Filename == "" {
		return fmt.Errorf("%w: file", entity.ErrMissingField)
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !AllowedExtensions[ext] {
		return fmt.Errorf("%w: %q (allowed: pdf)", entity.ErrInvalidExtension, ext)
	}

	size := int64(len(upload.Content))
	if size == 0 {
		return fmt.Errorf("%w: file '%s' is empty", entity.ErrInvalidFile, upload.Filename)
	}

	if size > v.cfg.MaxFileSize {
		return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, upload.Filename, size, v.cfg.MaxFileSize)
	}

	if detected := http.DetectContentType(upload.Content); detected != pdfContentType {
		return fmt.Errorf("%w: file '%s' is %s, not a PDF", entity.ErrInvalidFile, upload.Filename, detected)
	}

	return nil
}

// SanitizeFilename sanitizes a filename for safe storage
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filepath.Clean("/" + strings.ReplaceAll(filename, "\\", "/")))
	replacer := strings.NewReplacer(
		" ", "_",
		"(", "",
		")", "",
		"[", "",
		"]", "",
		"{", "",
		"}", "",
	)
	filename = replacer.Replace(filename)
	if filename == "/" || filename == "." || filename == ".." {
		return ""
	}
	return filename
}
