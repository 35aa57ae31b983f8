package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"vidcollab/api/internal/apperr"
	"vidcollab/api/internal/google"
	"vidcollab/api/internal/model"
	"vidcollab/api/internal/store"
	"vidcollab/api/pkg/security"
	"vidcollab/api/pkg/util"

	"go.uber.org/zap"
)

const (
	DefaultTokenTTL  = 24 * time.Hour
	publishDesc      = "Uploaded via YouTube Video Platform"
	publishPrivacy   = "public"
	msgVideoNotFound = "Video not found"
)

// Upload is an editor's buffered video file
type Upload struct {
	Name     string
	MimeType string
	Data     []byte
}

// Review runs the video lifecycle. A video starts in Action Pending with a
// pair of action tokens and leaves it either by being published (Approved) or
// sent back (Under Review). Tokens only exist while it is Action Pending.
type Review struct {
	Store       *store.Store
	Broker      Broker
	Notifier    Notifier
	FolderName  string
	FrontendURL string
	TokenTTL    time.Duration
	Now         func() time.Time
}

// Upload stores the file in the owning youtuber's Drive folder and opens a
// review for it
func (r *Review) Upload(ctx context.Context, editor *model.User, up *Upload) (*model.Video, error) {
	if up == nil || len(up.Data) == 0 {
		return nil, apperr.New(apperr.KindValidation, "No file uploaded")
	}

	if editor == nil || editor.Role != model.RoleEditor {
		return nil, apperr.New(apperr.KindForbidden, "Only editors can upload videos")
	}

	if editor.YoutuberID == nil || *editor.YoutuberID == "" {
		return nil, apperr.New(apperr.KindValidation, "Editor is not linked to any YouTuber")
	}

	owner, err := r.Store.UserByID(ctx, *editor.YoutuberID)
	if err != nil {
		return nil, storeErr(err, "YouTuber not found")
	}

	if !owner.Linked() {
		return nil, apperr.New(apperr.KindNotLinked, "Channel owner has not connected Google yet")
	}

	storage, err := r.Broker.Storage(ctx, owner)
	if err != nil {
		return nil, brokerErr(err, "Failed to access Google Drive")
	}

	file, err := r.storeFile(ctx, storage, owner, up)
	if err != nil {
		return nil, err
	}

	now := clock(r.Now)
	tokens, err := security.NewActionTokens(now, r.tokenTTL())
	if err != nil {
		return nil, err
	}

	id, err := util.NewID()
	if err != nil {
		return nil, err
	}

	video := &model.Video{
		ID:            id,
		FileID:        file.ID,
		Name:          up.Name,
		Link:          file.WebViewLink,
		Status:        model.StatusActionPending,
		UploadedBy:    editor.Email,
		YoutuberID:    owner.ID,
		ApprovalToken: &tokens.Approve,
		RejectToken:   &tokens.Reject,
		TokenExpires:  &tokens.ExpiresAt,
	}

	// The file already sits in Drive at this point. There is no way to undo
	// that if the insert fails, so it is only logged.
	if err := r.Store.CreateVideo(ctx, video); err != nil {
		zap.L().Error("Uploaded file has no video record", zap.String("fileID", file.ID), zap.Error(err))
		return nil, err
	}

	notify(ctx, r.Notifier, owner.Email,
		"New video awaiting review",
		fmt.Sprintf("%s uploaded %q.\n\nReview it here: %s\n\nThe approval links expire on %s.",
			editor.Email, video.Name, r.reviewURL(video.FileID, tokens), tokens.ExpiresAt.Format(time.RFC1123)),
	)

	return video, nil
}

// storeFile uploads into the cached folder. If Drive says the folder is gone
// it is provisioned again and the upload retried once.
func (r *Review) storeFile(ctx context.Context, s google.Storage, owner *model.User, up *Upload) (*google.File, error) {
	cached := owner.Google.FolderID

	for attempt := 0; ; attempt++ {
		folder, err := provisionFolder(ctx, s, cached, r.folderName())
		if err != nil {
			return nil, brokerErr(err, "Failed to prepare Drive folder")
		}

		if folder != owner.Google.FolderID {
			if err := r.Store.SetFolderID(ctx, owner.ID, folder); err != nil {
				return nil, err
			}
			owner.Google.FolderID = folder
		}

		file, err := s.CreateFile(ctx, google.NewFile{
			Name:     up.Name,
			MimeType: up.MimeType,
			ParentID: folder,
			Body:     bytes.NewReader(up.Data),
		})
		if err == nil {
			return file, nil
		}

		if errors.Is(err, google.ErrNotFound) && cached != "" && attempt == 0 {
			zap.L().Debug("Cached Drive folder is gone, provisioning again", zap.String("userID", owner.ID), zap.String("folderID", cached))
			cached = ""
			continue
		}

		return nil, brokerErr(err, "Failed to upload file to Google Drive")
	}
}

// Approve publishes the video to the owner's YouTube channel. Approving an
// already approved video does nothing.
func (r *Review) Approve(ctx context.Context, caller *model.User, fileID string) (*model.Video, error) {
	video, err := r.ownedVideo(ctx, caller, fileID)
	if err != nil {
		return nil, err
	}

	if video.Status == model.StatusApproved {
		return video, nil
	}

	return r.publish(ctx, caller, video)
}

// Reject sends the video back to Under Review
func (r *Review) Reject(ctx context.Context, caller *model.User, fileID string) (*model.Video, error) {
	video, err := r.ownedVideo(ctx, caller, fileID)
	if err != nil {
		return nil, err
	}

	return r.sendBack(ctx, video)
}

// ApproveWithToken is the emailed link variant of Approve. The token stands in
// for the owner's session.
func (r *Review) ApproveWithToken(ctx context.Context, fileID, token string) (*model.Video, error) {
	video, err := r.tokenVideo(ctx, fileID, token, func(v *model.Video) *string { return v.ApprovalToken })
	if err != nil {
		return nil, err
	}

	owner, err := r.Store.UserByID(ctx, video.YoutuberID)
	if err != nil {
		return nil, storeErr(err, "YouTuber not found")
	}

	return r.publish(ctx, owner, video)
}

func (r *Review) RejectWithToken(ctx context.Context, fileID, token string) (*model.Video, error) {
	video, err := r.tokenVideo(ctx, fileID, token, func(v *model.Video) *string { return v.RejectToken })
	if err != nil {
		return nil, err
	}

	return r.sendBack(ctx, video)
}

// List returns the owner's videos for a youtuber and the caller's own uploads
// for an editor
func (r *Review) List(ctx context.Context, caller *model.User) ([]model.Video, error) {
	switch caller.Role {
	case model.RoleYoutuber:
		return r.Store.VideosForYoutuber(ctx, caller.ID)
	case model.RoleEditor:
		owner := ""
		if caller.YoutuberID != nil {
			owner = *caller.YoutuberID
		}
		return r.Store.VideosUploadedBy(ctx, owner, caller.Email, caller.ID)
	default:
		return nil, apperr.New(apperr.KindForbidden, "Unknown role")
	}
}

func (r *Review) ownedVideo(ctx context.Context, caller *model.User, fileID string) (*model.Video, error) {
	if err := requireYoutuber(caller, "Only YouTubers can review videos"); err != nil {
		return nil, err
	}

	video, err := r.Store.VideoByFileID(ctx, fileID)
	if err != nil {
		return nil, storeErr(err, msgVideoNotFound)
	}

	if video.YoutuberID != caller.ID {
		return nil, apperr.New(apperr.KindForbidden, "Unauthorized")
	}

	return video, nil
}

func (r *Review) tokenVideo(ctx context.Context, fileID, token string, stored func(*model.Video) *string) (*model.Video, error) {
	if token == "" {
		return nil, apperr.New(apperr.KindValidation, "Missing token")
	}

	video, err := r.Store.VideoByFileID(ctx, fileID)
	if err != nil {
		return nil, storeErr(err, msgVideoNotFound)
	}

	if !security.TokenMatches(stored(video), token) {
		return nil, apperr.New(apperr.KindForbidden, "Invalid or already used token")
	}

	if video.TokenExpires != nil && !video.TokenExpires.After(clock(r.Now)) {
		return nil, apperr.New(apperr.KindExpired, "Token has expired")
	}

	return video, nil
}

// publish streams the file from Drive into a new YouTube video. The record is
// only touched once YouTube accepted the upload, and only if nobody changed
// the video's status in the meantime.
func (r *Review) publish(ctx context.Context, owner *model.User, video *model.Video) (*model.Video, error) {
	// A dropped client connection must not abort a half finished publish
	ctx = context.WithoutCancel(ctx)

	storage, err := r.Broker.Storage(ctx, owner)
	if err != nil {
		return nil, brokerErr(err, "Failed to access Google Drive")
	}

	publisher, err := r.Broker.Publisher(ctx, owner)
	if err != nil {
		return nil, brokerErr(err, "Failed to access YouTube")
	}

	ok, err := publisher.HasChannel(ctx)
	if err != nil {
		return nil, brokerErr(err, "Failed to check YouTube channel")
	}

	if !ok {
		return nil, apperr.New(apperr.KindNoChannel, "No YouTube channel found for this Google account. Create a channel first.")
	}

	body, err := storage.Open(ctx, video.FileID, nil)
	if err != nil {
		return nil, brokerErr(err, "Failed to read video from Google Drive")
	}
	defer body.Close()

	youtubeID, err := publisher.Publish(ctx, google.Video{
		Title:       video.Name,
		Description: publishDesc,
		Privacy:     publishPrivacy,
	}, body)
	if err != nil {
		zap.L().Error("Failed to publish video", zap.String("fileID", video.FileID), zap.Error(err))
		return nil, brokerErr(err, "Failed to upload video to YouTube")
	}

	if err := r.Store.MarkApproved(ctx, video.FileID, video.Status, youtubeID); err != nil {
		if errors.Is(err, store.ErrStale) {
			zap.L().Error("Video changed while publishing, published copy is orphaned",
				zap.String("fileID", video.FileID),
				zap.String("youtubeID", youtubeID),
			)
			return nil, apperr.Wrap(apperr.KindConflict, "Video was modified while publishing", err)
		}
		return nil, err
	}

	notify(ctx, r.Notifier, video.UploadedBy,
		"Your video was approved",
		fmt.Sprintf("%q was approved and published: https://www.youtube.com/watch?v=%s", video.Name, youtubeID),
	)

	return r.reload(ctx, video.FileID)
}

func (r *Review) sendBack(ctx context.Context, video *model.Video) (*model.Video, error) {
	if err := r.Store.MarkUnderReview(ctx, video.FileID); err != nil {
		return nil, storeErr(err, msgVideoNotFound)
	}

	notify(ctx, r.Notifier, video.UploadedBy,
		"Your video needs changes",
		fmt.Sprintf("%q was sent back for another round of review.", video.Name),
	)

	return r.reload(ctx, video.FileID)
}

func (r *Review) reload(ctx context.Context, fileID string) (*model.Video, error) {
	v, err := r.Store.VideoByFileID(ctx, fileID)
	if err != nil {
		return nil, storeErr(err, msgVideoNotFound)
	}

	return v, nil
}

func (r *Review) reviewURL(fileID string, t *security.ActionTokens) string {
	q := url.Values{}
	q.Set("page", "approval")
	q.Set("fileId", fileID)
	q.Set("approveToken", t.Approve)
	q.Set("rejectToken", t.Reject)

	return strings.TrimRight(r.FrontendURL, "/") + "/?" + q.Encode()
}

func (r *Review) tokenTTL() time.Duration {
	if r.TokenTTL <= 0 {
		return DefaultTokenTTL
	}

	return r.TokenTTL
}

func (r *Review) folderName() string {
	if r.FolderName == "" {
		return DefaultFolderName
	}

	return r.FolderName
}
