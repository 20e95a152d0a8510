// Package attach loads locally stored files as email attachments.
package attach

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/shineum/form-mailer/internal/email"
)

// ErrNotFound is returned when an attachment file cannot be opened.
var ErrNotFound = errors.New("attachment not found")

// Detector determines the MIME type of a local file.
type Detector interface {
	Detect(path string) (string, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(path string) (string, error)

// Detect calls f(path).
func (f DetectorFunc) Detect(path string) (string, error) {
	return f(path)
}

// MimeDetector detects MIME types from file content.
type MimeDetector struct{}

// Detect sniffs the leading bytes of the file at path.
func (MimeDetector) Detect(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

// Loader reads attachment files. The file handle is opened and closed within
// each Load call.
type Loader struct {
	detector Detector
}

// NewLoader creates a Loader. A nil detector sniffs content with mimetype.
func NewLoader(d Detector) *Loader {
	return &Loader{detector: d}
}

// Load reads the file at path. name is the attachment's display filename;
// when empty the base name of path is used. A missing or unreadable file
// returns an error wrapping ErrNotFound.
func (l *Loader) Load(path, name string) (email.Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return email.Attachment{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return email.Attachment{}, fmt.Errorf("failed to open attachment: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return email.Attachment{}, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.IsDir() {
		return email.Attachment{}, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return email.Attachment{}, fmt.Errorf("failed to read attachment: %w", err)
	}

	contentType, err := l.contentType(path, content)
	if err != nil {
		return email.Attachment{}, fmt.Errorf("failed to detect attachment type: %w", err)
	}

	if name == "" {
		name = filepath.Base(path)
	}

	return email.Attachment{
		Filename:    name,
		ContentType: contentType,
		Content:     content,
		Path:        path,
	}, nil
}

func (l *Loader) contentType(path string, content []byte) (string, error) {
	if l.detector != nil {
		return l.detector.Detect(path)
	}
	return mimetype.Detect(content).String(), nil
}
