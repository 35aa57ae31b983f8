package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

type Drive struct {
	svc *drive.Service
}

func NewDrive(svc *drive.Service) *Drive {
	return &Drive{svc: svc}
}

func (d *Drive) FindFolder(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), FolderMimeType)

	res, err := d.svc.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", translate(err, "failed to list folders")
	}

	if len(res.Files) == 0 {
		return "", nil
	}

	return res.Files[0].Id, nil
}

func (d *Drive) CreateFolder(ctx context.Context, name string) (string, error) {
	f, err := d.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: FolderMimeType,
	}).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", translate(err, "failed to create folder")
	}

	return f.Id, nil
}

func (d *Drive) CreateFile(ctx context.Context, nf NewFile) (*File, error) {
	meta := &drive.File{Name: nf.Name}
	if nf.ParentID != "" {
		meta.Parents = []string{nf.ParentID}
	}

	f, err := d.svc.Files.Create(meta).
		Media(nf.Body, googleapi.ContentType(nf.MimeType)).
		Fields("id, name, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return nil, translate(err, "failed to upload file")
	}

	return &File{
		ID:          f.Id,
		Name:        f.Name,
		WebViewLink: f.WebViewLink,
	}, nil
}

func (d *Drive) Metadata(ctx context.Context, fileID string) (*FileMeta, error) {
	f, err := d.svc.Files.Get(fileID).
		Fields("size, mimeType").
		Context(ctx).
		Do()
	if err != nil {
		return nil, translate(err, "failed to fetch file metadata")
	}

	return &FileMeta{
		Size:     f.Size,
		MimeType: f.MimeType,
	}, nil
}

func (d *Drive) Open(ctx context.Context, fileID string, r *ByteRange) (io.ReadCloser, error) {
	call := d.svc.Files.Get(fileID).Context(ctx)
	if r != nil {
		call.Header().Set("Range", r.Header())
	}

	resp, err := call.Download()
	if err != nil {
		return nil, translate(err, "failed to download file")
	}

	return resp.Body, nil
}

// escapeQuery escapes a value for use inside a single-quoted Drive query string
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func translate(err error, msg string) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr.Code == http.StatusNotFound {
		return fmt.Errorf("%s, %w, %w", msg, ErrNotFound, err)
	}

	return fmt.Errorf("%s, %w", msg, err)
}
