// Package google binds youtubers' Google accounts to the platform. It turns a
// stored refresh token into per-call Drive and YouTube clients and exposes
// them through the narrow Storage and Publisher interfaces.
package google

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotLinked means the user has no refresh token, or Google no longer
	// accepts the one we have
	ErrNotLinked = errors.New("google account not linked")
	// ErrNotFound means Drive doesn't know the file or folder
	ErrNotFound = errors.New("google resource not found")
)

const FolderMimeType = "application/vnd.google-apps.folder"

type NewFile struct {
	Name     string
	MimeType string
	ParentID string
	Body     io.Reader
}

type File struct {
	ID          string
	Name        string
	WebViewLink string
}

type FileMeta struct {
	Size     int64
	MimeType string
}

// ByteRange is an inclusive range of bytes, like the HTTP Range header
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Header() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

func (r ByteRange) Len() int64 {
	return r.End - r.Start + 1
}

// Storage is the subset of Drive the platform uses
type Storage interface {
	// FindFolder returns the ID of a non-trashed folder with the given name or
	// an empty string if there is none
	FindFolder(ctx context.Context, name string) (string, error)
	CreateFolder(ctx context.Context, name string) (string, error)
	CreateFile(ctx context.Context, f NewFile) (*File, error)
	Metadata(ctx context.Context, fileID string) (*FileMeta, error)
	// Open streams the file's content. A nil range reads the whole file.
	Open(ctx context.Context, fileID string, r *ByteRange) (io.ReadCloser, error)
}

type Video struct {
	Title       string
	Description string
	Privacy     string
}

// Publisher is the subset of YouTube the platform uses
type Publisher interface {
	HasChannel(ctx context.Context) (bool, error)
	// Publish uploads body as a new video and returns its YouTube ID
	Publish(ctx context.Context, v Video, body io.Reader) (string, error)
}
