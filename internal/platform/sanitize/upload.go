// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sanitize

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/taibuivan/stockroom/pkg/uuid"
)

// # File Uploads

// DefaultMaxFileSize is 10 MiB.
const DefaultMaxFileSize int64 = 10 << 20

// allowedUploads maps each accepted extension to the content types it may declare.
var allowedUploads = map[string][]string{
	".csv":  {"text/csv", "application/csv", "text/plain"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	".xls":  {"application/vnd.ms-excel"},
	".pdf":  {"application/pdf"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
}

// UploadPolicy bounds accepted uploads.
type UploadPolicy struct {
	// MaxSize in bytes. Zero uses [DefaultMaxFileSize].
	MaxSize int64
}

// ValidateFileUpload checks an upload against the default policy.
func ValidateFileUpload(filename, contentType string, size int64) []string {
	return UploadPolicy{}.Validate(filename, contentType, size)
}

// Validate returns every problem with the upload, in check order:
// file name characters, extension, content type, size.
// A size of zero or less is treated as unknown and not checked.
func (policy UploadPolicy) Validate(filename, contentType string, size int64) []string {
	var problems []string

	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\\x00") {
		problems = append(problems, "Filename contains invalid characters")
	}

	extension := strings.ToLower(filepath.Ext(filename))
	allowedTypes, known := allowedUploads[extension]
	if !known {
		problems = append(problems, fmt.Sprintf("File type %q is not allowed", extension))
	} else if !containsType(allowedTypes, contentType) {
		problems = append(problems, fmt.Sprintf("Content type %q is not allowed for %s files", contentType, extension))
	}

	maxSize := policy.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if size > maxSize {
		problems = append(problems, fmt.Sprintf("File size exceeds maximum of %d bytes", maxSize))
	}

	return problems
}

func containsType(allowed []string, contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	for _, candidate := range allowed {
		if candidate == mediaType {
			return true
		}
	}
	return false
}

// SecureFilename returns a fresh, unguessable storage name that keeps the
// original extension only when it is on the upload allowlist.
func SecureFilename(original string) string {
	extension := strings.ToLower(filepath.Ext(original))
	if _, known := allowedUploads[extension]; !known {
		extension = ""
	}
	return uuid.Compact() + extension
}
