package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("only mp4, mov and avi videos are allowed")
	ErrNoFile              = errors.New("no file uploaded")
)

const maxFileNameSize = 255

var allowedExtensions = []string{".mp4", ".mov", ".avi"}

// VideoFile is an upload that passed validation, read fully into memory
type VideoFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// VideoValidator checks the multipart file against the size limit and the
// allowed video types. The extension and header are cheap to check and easy
// to spoof, so the content is sniffed as well. Returns the HTTP status to use
// on failure.
func VideoValidator(fh *multipart.FileHeader, maxSize int64, allowedTypes []string) (*VideoFile, int, error) {
	if fh == nil {
		return nil, http.StatusBadRequest, ErrNoFile
	}

	if len(fh.Filename) > maxFileNameSize {
		return nil, http.StatusBadRequest, ErrFileNameTooLong
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !slices.Contains(allowedExtensions, ext) {
		return nil, http.StatusBadRequest, ErrFileTypeUnsupported
	}

	if fh.Size > maxSize {
		return nil, http.StatusRequestEntityTooLarge, ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	defer f.Close()

	// One extra byte tells us whether the declared size lied
	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	if int64(len(data)) > maxSize {
		return nil, http.StatusRequestEntityTooLarge, ErrFileTooLarge
	}

	if len(data) == 0 {
		return nil, http.StatusBadRequest, ErrNoFile
	}

	mime := mimetype.Detect(data)
	if !mimeAllowed(mime, allowedTypes) {
		return nil, http.StatusBadRequest, ErrFileTypeUnsupported
	}

	return &VideoFile{
		Name:     filepath.Base(fh.Filename),
		MimeType: mime.String(),
		Data:     data,
	}, 0, nil
}

func mimeAllowed(m *mimetype.MIME, allowed []string) bool {
	for ; m != nil; m = m.Parent() {
		for _, a := range allowed {
			if m.Is(a) {
				return true
			}
		}
	}

	return false
}
