package workflow

import (
	"path"
	"strings"
)

const DefaultMaxUploadBytes int64 = 1000 * 1024 * 1024

var DefaultAllowedExtensions = []string{
	"pdf", "jpg", "jpeg", "png", "mp4", "doc", "docx", "ppt", "pptx", "zip", "xls", "xlsx",
}

// FileRef points at a blob kept by the external file store.
type FileRef struct {
	Name       string
	StorageKey string
	SizeBytes  int64
}

// FilePolicy holds the upload limits applied before a reference is stored.
type FilePolicy struct {
	MaxBytes          int64
	AllowedExtensions []string
}

func DefaultFilePolicy() FilePolicy {
	return FilePolicy{
		MaxBytes:          DefaultMaxUploadBytes,
		AllowedExtensions: DefaultAllowedExtensions,
	}
}

func (p FilePolicy) Validate(file FileRef) (FileRef, error) {
	name := strings.TrimSpace(file.Name)
	if name == "" {
		return FileRef{}, Invalid("file", "file name is required")
	}
	key := strings.TrimSpace(file.StorageKey)
	if key == "" {
		return FileRef{}, Invalid("file", "storage key is required")
	}
	if file.SizeBytes < 0 {
		return FileRef{}, Invalid("file", "size cannot be negative")
	}

	maxBytes := p.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if file.SizeBytes > maxBytes {
		return FileRef{}, Invalid("file", "file size exceeds the upload limit")
	}

	allowed := p.AllowedExtensions
	if len(allowed) == 0 {
		allowed = DefaultAllowedExtensions
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	for _, candidate := range allowed {
		if ext == strings.ToLower(strings.TrimPrefix(candidate, ".")) {
			return FileRef{Name: name, StorageKey: key, SizeBytes: file.SizeBytes}, nil
		}
	}
	return FileRef{}, Invalid("file", "unsupported file extension ."+ext)
}

func (p FilePolicy) ValidateAll(files []FileRef) ([]FileRef, error) {
	out := make([]FileRef, 0, len(files))
	for _, file := range files {
		valid, err := p.Validate(file)
		if err != nil {
			return nil, err
		}
		out = append(out, valid)
	}
	return out, nil
}
