package google

import (
	"context"
	"errors"
	"io"

	"google.golang.org/api/youtube/v3"
)

type YouTube struct {
	svc *youtube.Service
}

func NewYouTube(svc *youtube.Service) *YouTube {
	return &YouTube{svc: svc}
}

func (y *YouTube) HasChannel(ctx context.Context) (bool, error) {
	res, err := y.svc.Channels.List([]string{"id"}).
		Mine(true).
		Context(ctx).
		Do()
	if err != nil {
		return false, translate(err, "failed to list channels")
	}

	return len(res.Items) > 0, nil
}

// Publish hands body straight to the resumable upload, which reads it chunk
// by chunk instead of holding the whole video in memory
func (y *YouTube) Publish(ctx context.Context, v Video, body io.Reader) (string, error) {
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       v.Title,
			Description: v.Description,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: v.Privacy,
		},
	}

	res, err := y.svc.Videos.Insert([]string{"snippet", "status"}, video).
		Media(body).
		Context(ctx).
		Do()
	if err != nil {
		return "", translate(err, "failed to upload video to youtube")
	}

	if res.Id == "" {
		return "", errors.New("youtube returned an empty video ID")
	}

	return res.Id, nil
}
