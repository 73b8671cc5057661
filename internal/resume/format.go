package resume

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

var mimeTypes = map[string]string{
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"doc":  "application/msword",
	"txt":  "text/plain",
}

// UnsupportedFormatError means the resume extension has no known document type.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported resume file type: %q", e.Extension)
}

// FetchError means the resume could not be downloaded.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("download resume %s: status %d", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("download resume %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("download resume %s", e.URL)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MIMEType derives the document type from the extension of the URL path.
func MIMEType(resumeURL string) (string, error) {
	p := resumeURL
	if u, err := url.Parse(resumeURL); err == nil && u.Path != "" {
		p = u.Path
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	mime, ok := mimeTypes[ext]
	if !ok {
		return "", &UnsupportedFormatError{Extension: ext}
	}
	return mime, nil
}
