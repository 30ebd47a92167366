package domain

import (
	"io"
	"path"
	"strings"
)

// PhotoUpload carries a student photo on its way to object storage.
type PhotoUpload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// Extension returns the lower-cased file extension without the dot, or "jpg".
func (p *PhotoUpload) Extension() string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p.FileName)), ".")
	if ext == "" {
		return "jpg"
	}
	return ext
}
