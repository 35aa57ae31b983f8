package service

import (
	"context"
	"io"
	"strconv"
	"strings"

	"vidcollab/api/internal/apperr"
	"vidcollab/api/internal/google"
)

// ChunkSize is the largest byte window served by a single range request
const ChunkSize int64 = 1_000_000

// Chunk is one partial response worth of a stored video
type Chunk struct {
	Start    int64
	End      int64
	Size     int64
	MimeType string
	Body     io.ReadCloser
}

func (c *Chunk) Len() int64 {
	return c.End - c.Start + 1
}

// Stream serves a window of at most ChunkSize bytes of a stored video.
// Anyone who knows the file ID can read it.
//
// TODO: restrict to the owning youtuber and their editors once the player
// sends a session token with range requests.
func (r *Review) Stream(ctx context.Context, fileID, rangeHeader string) (*Chunk, error) {
	if rangeHeader == "" {
		return nil, apperr.New(apperr.KindValidation, "Requires Range header")
	}

	start, end, err := parseRange(rangeHeader)
	if err != nil {
		return nil, err
	}

	video, err := r.Store.VideoByFileID(ctx, fileID)
	if err != nil {
		return nil, storeErr(err, msgVideoNotFound)
	}

	owner, err := r.Store.UserByID(ctx, video.YoutuberID)
	if err != nil {
		return nil, storeErr(err, "YouTuber not found")
	}

	storage, err := r.Broker.Storage(ctx, owner)
	if err != nil {
		return nil, brokerErr(err, "Failed to access Google Drive")
	}

	meta, err := storage.Metadata(ctx, fileID)
	if err != nil {
		return nil, brokerErr(err, msgVideoNotFound)
	}

	if start >= meta.Size {
		return nil, apperr.New(apperr.KindRange, "Requested range not satisfiable")
	}

	last := min(start+ChunkSize-1, meta.Size-1)
	if end >= 0 && end < last {
		last = end
	}

	mime := meta.MimeType
	if mime == "" {
		mime = "video/mp4"
	}

	br := google.ByteRange{Start: start, End: last}
	body, err := storage.Open(ctx, fileID, &br)
	if err != nil {
		return nil, brokerErr(err, "Failed to stream video")
	}

	return &Chunk{
		Start:    start,
		End:      last,
		Size:     meta.Size,
		MimeType: mime,
		Body:     body,
	}, nil
}

// parseRange reads a single "bytes=start-" or "bytes=start-end" range. End is
// -1 when open ended. Suffix ranges aren't supported.
func parseRange(h string) (start, end int64, err error) {
	bad := apperr.New(apperr.KindRange, "Invalid Range header")

	rs, ok := strings.CutPrefix(strings.TrimSpace(h), "bytes=")
	if !ok || strings.Contains(rs, ",") {
		return 0, 0, bad
	}

	from, to, ok := strings.Cut(rs, "-")
	if !ok || from == "" {
		return 0, 0, bad
	}

	start, err = strconv.ParseInt(strings.TrimSpace(from), 10, 64)
	if err != nil || start < 0 {
		return 0, 0, bad
	}

	if to = strings.TrimSpace(to); to == "" {
		return start, -1, nil
	}

	end, err = strconv.ParseInt(to, 10, 64)
	if err != nil || end < start {
		return 0, 0, bad
	}

	return start, end, nil
}
