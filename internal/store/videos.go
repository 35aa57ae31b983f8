package store

import (
	"context"

	"vidcollab/api/internal/model"
)

func (s *Store) CreateVideo(ctx context.Context, v *model.Video) error {
	return translate(s.db.WithContext(ctx).Create(v).Error)
}

func (s *Store) VideoByFileID(ctx context.Context, fileID string) (*model.Video, error) {
	var v model.Video

	err := s.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		First(&v).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &v, nil
}

func (s *Store) VideosForYoutuber(ctx context.Context, youtuberID string) ([]model.Video, error) {
	var videos []model.Video

	err := s.db.WithContext(ctx).
		Where("youtuber_id = ?", youtuberID).
		Order("created_at desc").
		Find(&videos).
		Error
	if err != nil {
		return nil, err
	}

	return videos, nil
}

// VideosUploadedBy lists videos whose uploader matches any of the given
// identities. An empty youtuberID matches every owner.
func (s *Store) VideosUploadedBy(ctx context.Context, youtuberID string, uploaders ...string) ([]model.Video, error) {
	var videos []model.Video

	q := s.db.WithContext(ctx).Where("uploaded_by IN ?", uploaders)
	if youtuberID != "" {
		q = q.Where("youtuber_id = ?", youtuberID)
	}

	err := q.Order("created_at desc").Find(&videos).Error
	if err != nil {
		return nil, err
	}

	return videos, nil
}

// MarkApproved records the published video and clears the action tokens, but
// only if the video is still in the status the caller observed before
// publishing. ErrStale means someone else moved it in the meantime.
func (s *Store) MarkApproved(ctx context.Context, fileID string, from model.VideoStatus, youtubeID string) error {
	r := s.db.WithContext(ctx).
		Model(&model.Video{}).
		Where("file_id = ? AND status = ?", fileID, from).
		Updates(map[string]any{
			"status":         model.StatusApproved,
			"youtube_id":     youtubeID,
			"approval_token": nil,
			"reject_token":   nil,
			"token_expires":  nil,
		})
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected == 0 {
		return ErrStale
	}

	return nil
}

// MarkUnderReview moves a video to Under Review and clears the action tokens
// whatever its current status is
func (s *Store) MarkUnderReview(ctx context.Context, fileID string) error {
	r := s.db.WithContext(ctx).
		Model(&model.Video{}).
		Where("file_id = ?", fileID).
		Updates(map[string]any{
			"status":         model.StatusUnderReview,
			"approval_token": nil,
			"reject_token":   nil,
			"token_expires":  nil,
		})
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
