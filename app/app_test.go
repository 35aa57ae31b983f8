package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"vidcollab/api/db"
	"vidcollab/api/internal"
	"vidcollab/api/internal/google"
	"vidcollab/api/internal/model"
	"vidcollab/api/internal/service"
	"vidcollab/api/internal/store"
	"vidcollab/api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const frontend = "https://app.example.com"

// A minimal ISO base media header, enough for content sniffing to call it mp4
var mp4Header = append([]byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isomiso2"), make([]byte, 64)...)

type memStorage struct {
	files map[string][]byte
	next  int
}

func (m *memStorage) FindFolder(context.Context, string) (string, error) { return "", nil }

func (m *memStorage) CreateFolder(context.Context, string) (string, error) { return "folder", nil }

func (m *memStorage) CreateFile(_ context.Context, f google.NewFile) (*google.File, error) {
	data, err := io.ReadAll(f.Body)
	if err != nil {
		return nil, err
	}

	m.next++
	id := fmt.Sprintf("file-%d", m.next)
	m.files[id] = data

	return &google.File{ID: id, Name: f.Name, WebViewLink: "https://drive.example.com/" + id}, nil
}

func (m *memStorage) Metadata(_ context.Context, id string) (*google.FileMeta, error) {
	data, ok := m.files[id]
	if !ok {
		return nil, google.ErrNotFound
	}
	return &google.FileMeta{Size: int64(len(data)), MimeType: "video/mp4"}, nil
}

func (m *memStorage) Open(_ context.Context, id string, r *google.ByteRange) (io.ReadCloser, error) {
	data, ok := m.files[id]
	if !ok {
		return nil, google.ErrNotFound
	}
	if r != nil {
		data = data[r.Start : r.End+1]
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type memPublisher struct{ published int }

func (p *memPublisher) HasChannel(context.Context) (bool, error) { return true, nil }

func (p *memPublisher) Publish(_ context.Context, _ google.Video, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	p.published++
	return fmt.Sprintf("yt-%d", p.published), nil
}

type memBroker struct {
	storage   *memStorage
	publisher *memPublisher
}

func (b *memBroker) Storage(_ context.Context, u *model.User) (google.Storage, error) {
	if !u.Linked() {
		return nil, google.ErrNotLinked
	}
	return b.storage, nil
}

func (b *memBroker) Publisher(_ context.Context, u *model.User) (google.Publisher, error) {
	if !u.Linked() {
		return nil, google.ErrNotLinked
	}
	return b.publisher, nil
}

type staticOAuth struct{}

func (staticOAuth) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (staticOAuth) Exchange(context.Context, string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "a", RefreshToken: "r"}, nil
}

type testServer struct {
	router *gin.Engine
	store  *store.Store
	broker *memBroker
	signer *security.Signer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gin.SetMode(gin.TestMode)
	viper.Reset()
	viper.Set("host.cors_origins", []string{frontend})
	t.Cleanup(viper.Reset)

	conn, err := db.New("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	s := store.New(conn)
	signer := security.NewSigner("test-secret", nil)
	broker := &memBroker{storage: &memStorage{files: map[string][]byte{}}, publisher: &memPublisher{}}

	d := &internal.Deps{
		DB:    conn,
		Store: s,
		Accounts: &service.Accounts{
			Store:  s,
			Hasher: security.NewFast(),
			Tokens: signer,
		},
		Linker: &service.Linker{
			Store:       s,
			OAuth:       staticOAuth{},
			Broker:      broker,
			Tokens:      signer,
			FrontendURL: frontend,
		},
		Review: &service.Review{
			Store:       s,
			Broker:      broker,
			FrontendURL: frontend,
		},
		Team: &service.Team{
			Store:       s,
			FrontendURL: frontend,
		},
		MaxUploadSize: 1 << 20,
		AllowedTypes:  []string{"video/mp4", "video/quicktime", "video/x-msvideo"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return &testServer{router: NewRouter(ctx, d), store: s, broker: broker, signer: signer}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	return w
}

func (ts *testServer) signup(t *testing.T, email string) (token, id string) {
	t.Helper()

	w := ts.do(t, http.MethodPost, "/api/auth/signup", "",
		strings.NewReader(fmt.Sprintf(`{"email":%q,"password":"secret123","role":"youtuber"}`, email)), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))

	return res.Token, res.User.ID
}

func (ts *testServer) link(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, ts.store.SaveGoogleLink(context.Background(), id, model.GoogleLink{RefreshToken: "refresh"}))
}

func (ts *testServer) editor(t *testing.T, youtuberID string) string {
	t.Helper()

	owner := youtuberID
	u := &model.User{ID: "ed-" + youtuberID, Email: "ed@example.com", PasswordHash: "x", Role: model.RoleEditor, YoutuberID: &owner, Status: model.UserActive}
	require.NoError(t, ts.store.CreateUser(context.Background(), u))

	token, err := ts.signer.Issue(security.TokenAuth, u.ID, string(u.Role), time.Hour)
	require.NoError(t, err)

	return token
}

func uploadBody(t *testing.T, name string, data []byte) (io.Reader, http.Header) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("video", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, http.Header{"Content-Type": {mw.FormDataContentType()}}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func TestHeartbeat(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodHead, "/api/heartbeat", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignupLoginMe(t *testing.T) {
	ts := newTestServer(t)

	_, id := ts.signup(t, "yt@example.com")

	w := ts.do(t, http.MethodPost, "/api/auth/login", "",
		strings.NewReader(`{"email":"yt@example.com","password":"secret123","role":"youtuber"}`), nil)
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["token"].(string)

	w = ts.do(t, http.MethodGet, "/api/auth/me", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	me := decode(t, w)
	assert.Equal(t, id, me["id"])
	assert.Equal(t, false, me["googleConnected"])
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "argon2id")

	w = ts.do(t, http.MethodPost, "/api/auth/login", "",
		strings.NewReader(`{"email":"yt@example.com","password":"wrong-one","role":"youtuber"}`), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, decode(t, w)["requestID"])

	w = ts.do(t, http.MethodGet, "/api/auth/me", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGoogleConnectAndCallback(t *testing.T) {
	ts := newTestServer(t)

	token, id := ts.signup(t, "yt@example.com")

	w := ts.do(t, http.MethodGet, "/api/google/connect", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	consent, err := url.Parse(decode(t, w)["url"].(string))
	require.NoError(t, err)
	state := consent.Query().Get("state")

	w = ts.do(t, http.MethodGet, "/api/google/oauth2callback?code=abc&state="+url.QueryEscape(state), "", nil, nil)
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "success", loc.Query().Get("type"))

	u, err := ts.store.UserByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, u.Linked())
	assert.Equal(t, "folder", u.Google.FolderID)

	w = ts.do(t, http.MethodGet, "/api/google/oauth2callback?code=abc&state=forged", "", nil, nil)
	require.Equal(t, http.StatusFound, w.Code)
	loc, err = url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "error", loc.Query().Get("type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), frontend+"/?"))
}

func TestVideoLifecycle(t *testing.T) {
	ts := newTestServer(t)

	ytToken, ytID := ts.signup(t, "yt@example.com")
	edToken := ts.editor(t, ytID)

	// Not linked yet
	body, header := uploadBody(t, "clip.mp4", mp4Header)
	w := ts.do(t, http.MethodPost, "/api/video/upload", edToken, body, header)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	ts.link(t, ytID)

	body, header = uploadBody(t, "clip.txt", mp4Header)
	w = ts.do(t, http.MethodPost, "/api/video/upload", edToken, body, header)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body, header = uploadBody(t, "clip.mp4", mp4Header)
	w = ts.do(t, http.MethodPost, "/api/video/upload", ytToken, body, header)
	require.Equal(t, http.StatusForbidden, w.Code)

	body, header = uploadBody(t, "clip.mp4", mp4Header)
	w = ts.do(t, http.MethodPost, "/api/video/upload", edToken, body, header)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	video := decode(t, w)["video"].(map[string]any)
	fileID := video["fileId"].(string)
	assert.Equal(t, string(model.StatusActionPending), video["status"])
	assert.NotContains(t, w.Body.String(), "approvalToken")

	w = ts.do(t, http.MethodGet, "/api/video", ytToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fileID)

	w = ts.do(t, http.MethodPost, "/api/video/reject-json/"+fileID, ytToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(model.StatusUnderReview), decode(t, w)["status"])

	w = ts.do(t, http.MethodPost, "/api/video/approve-json/"+fileID, edToken, nil, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	for i := 0; i < 2; i++ {
		w = ts.do(t, http.MethodPost, "/api/video/approve-json/"+fileID, ytToken, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		res := decode(t, w)
		assert.Equal(t, string(model.StatusApproved), res["status"])
		assert.Equal(t, "yt-1", res["youtubeId"])
	}

	assert.Equal(t, 1, ts.broker.publisher.published)

	w = ts.do(t, http.MethodPost, "/api/video/approve-json/missing", ytToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTokenDecision(t *testing.T) {
	ts := newTestServer(t)

	_, ytID := ts.signup(t, "yt@example.com")
	ts.link(t, ytID)
	edToken := ts.editor(t, ytID)

	body, header := uploadBody(t, "clip.mp4", mp4Header)
	w := ts.do(t, http.MethodPost, "/api/video/upload", edToken, body, header)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	fileID := decode(t, w)["video"].(map[string]any)["fileId"].(string)

	v, err := ts.store.VideoByFileID(context.Background(), fileID)
	require.NoError(t, err)

	w = ts.do(t, http.MethodPost, "/api/video/"+fileID+"/approve?token=wrong", "", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, "/api/video/"+fileID+"/approve?token="+*v.ApprovalToken, "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(model.StatusApproved), decode(t, w)["status"])

	w = ts.do(t, http.MethodPost, "/api/video/"+fileID+"/reject?token="+*v.RejectToken, "", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStream(t *testing.T) {
	ts := newTestServer(t)

	_, ytID := ts.signup(t, "yt@example.com")
	ts.link(t, ytID)

	ts.broker.storage.files["big"] = make([]byte, 10_000_000)
	require.NoError(t, ts.store.CreateVideo(context.Background(), &model.Video{
		ID: "v1", FileID: "big", Name: "big.mp4", Status: model.StatusActionPending, UploadedBy: "ed@example.com", YoutuberID: ytID,
	}))

	w := ts.do(t, http.MethodGet, "/api/video/stream/big", "", nil, http.Header{"Range": {"bytes=0-"}})
	require.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "bytes 0-999999/10000000", w.Header().Get("Content-Range"))
	assert.Equal(t, "1000000", w.Header().Get("Content-Length"))
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
	assert.Equal(t, 1_000_000, w.Body.Len())

	w = ts.do(t, http.MethodGet, "/api/video/stream/big", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/video/stream/big", "", nil, http.Header{"Range": {"bytes=20000000-"}})
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, w.Code)

	w = ts.do(t, http.MethodGet, "/api/video/stream/missing", "", nil, http.Header{"Range": {"bytes=0-"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTeamRoutes(t *testing.T) {
	ts := newTestServer(t)

	ytToken, ytID := ts.signup(t, "yt@example.com")
	edToken := ts.editor(t, ytID)

	w := ts.do(t, http.MethodGet, "/api/team/editors", edToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodGet, "/api/team/editors", ytToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ed@example.com")

	w = ts.do(t, http.MethodPost, "/api/auth/signup", "",
		strings.NewReader(fmt.Sprintf(`{"email":"new@example.com","password":"secret123","role":"editor","youtuberId":%q}`, ytID)), nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/team/pending-invites", ytToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var invites []model.PendingInvite
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invites))
	require.Len(t, invites, 1)

	w = ts.do(t, http.MethodPost, "/api/team/pending-invites/"+invites[0].ID+"/deny", ytToken, strings.NewReader(`{"reason":"full"}`), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPatch, "/api/team/editor/ed-"+ytID+"/deactivate", ytToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Deactivated editors are locked out right away
	w = ts.do(t, http.MethodGet, "/api/video", edToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodGet, "/api/team/editor/ed-"+ytID+"/history", ytToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)

	w = ts.do(t, http.MethodDelete, "/api/team/editor/ed-"+ytID, ytToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/team/editor/ed-"+ytID, ytToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
