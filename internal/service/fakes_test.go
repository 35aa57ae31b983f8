package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"vidcollab/api/db"
	"vidcollab/api/internal/google"
	"vidcollab/api/internal/model"
	"vidcollab/api/internal/store"
	"vidcollab/api/pkg/security"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var start = time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)

const (
	testSecret   = "test-secret"
	testFrontend = "https://app.example.com"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeStorage struct {
	mu       sync.Mutex
	folders  map[string]string // name -> id
	deleted  map[string]bool   // folder IDs Drive no longer knows
	files    map[string][]byte
	mimes    map[string]string
	parents  map[string]string
	created  int
	nextFile int
	findErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		folders: map[string]string{},
		deleted: map[string]bool{},
		files:   map[string][]byte{},
		mimes:   map[string]string{},
		parents: map[string]string{},
	}
}

func (s *fakeStorage) FindFolder(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findErr != nil {
		return "", s.findErr
	}

	return s.folders[name], nil
}

func (s *fakeStorage) CreateFolder(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.created++
	id := fmt.Sprintf("folder-%d", s.created)
	s.folders[name] = id

	return id, nil
}

func (s *fakeStorage) CreateFile(_ context.Context, f google.NewFile) (*google.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleted[f.ParentID] {
		return nil, fmt.Errorf("parent %s: %w", f.ParentID, google.ErrNotFound)
	}

	data, err := io.ReadAll(f.Body)
	if err != nil {
		return nil, err
	}

	s.nextFile++
	id := fmt.Sprintf("file-%d", s.nextFile)
	s.files[id] = data
	s.mimes[id] = f.MimeType
	s.parents[id] = f.ParentID

	return &google.File{ID: id, Name: f.Name, WebViewLink: "https://drive.example.com/" + id}, nil
}

func (s *fakeStorage) put(id, mime string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[id] = data
	s.mimes[id] = mime
}

func (s *fakeStorage) Metadata(_ context.Context, id string) (*google.FileMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.files[id]
	if !ok {
		return nil, google.ErrNotFound
	}

	return &google.FileMeta{Size: int64(len(data)), MimeType: s.mimes[id]}, nil
}

func (s *fakeStorage) Open(_ context.Context, id string, r *google.ByteRange) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.files[id]
	if !ok {
		return nil, google.ErrNotFound
	}

	if r != nil {
		data = data[r.Start : r.End+1]
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

type fakePublisher struct {
	mu         sync.Mutex
	noChannel  bool
	publishErr error
	published  [][]byte
	videos     []google.Video
}

func (p *fakePublisher) HasChannel(context.Context) (bool, error) {
	return !p.noChannel, nil
}

func (p *fakePublisher) Publish(_ context.Context, v google.Video, body io.Reader) (string, error) {
	if p.publishErr != nil {
		return "", p.publishErr
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.published = append(p.published, data)
	p.videos = append(p.videos, v)

	return fmt.Sprintf("yt-%d", len(p.published)), nil
}

type fakeBroker struct {
	storage   *fakeStorage
	publisher *fakePublisher
	calls     int
	tokens    []string
}

func (b *fakeBroker) client(u *model.User) error {
	b.calls++
	if !u.Linked() {
		return google.ErrNotLinked
	}
	b.tokens = append(b.tokens, u.Google.RefreshToken)
	return nil
}

func (b *fakeBroker) Storage(_ context.Context, u *model.User) (google.Storage, error) {
	if err := b.client(u); err != nil {
		return nil, err
	}
	return b.storage, nil
}

func (b *fakeBroker) Publisher(_ context.Context, u *model.User) (google.Publisher, error) {
	if err := b.client(u); err != nil {
		return nil, err
	}
	return b.publisher, nil
}

type sentMail struct {
	To, Subject, Body string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: body})
	return n.err
}

func (n *fakeNotifier) to(addr string) []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []sentMail
	for _, m := range n.sent {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

type fakeOAuth struct {
	token     *oauth2.Token
	err       error
	exchanged []string
}

func (o *fakeOAuth) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (o *fakeOAuth) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	o.exchanged = append(o.exchanged, code)
	if o.err != nil {
		return nil, o.err
	}
	return o.token, nil
}

type testEnv struct {
	store     *store.Store
	clock     *testClock
	storage   *fakeStorage
	publisher *fakePublisher
	broker    *fakeBroker
	notifier  *fakeNotifier
	oauth     *fakeOAuth
	signer    *security.Signer

	review   *Review
	linker   *Linker
	team     *Team
	accounts *Accounts
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	g, err := db.New("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := g.DB(); err == nil {
			sqlDB.Close()
		}
	})

	e := &testEnv{
		store:     store.New(g),
		clock:     &testClock{t: start},
		storage:   newFakeStorage(),
		publisher: &fakePublisher{},
		notifier:  &fakeNotifier{},
		oauth:     &fakeOAuth{token: &oauth2.Token{AccessToken: "access", RefreshToken: "refresh-1"}},
	}
	e.broker = &fakeBroker{storage: e.storage, publisher: e.publisher}
	e.signer = security.NewSigner(testSecret, e.clock.Now)

	e.review = &Review{
		Store:       e.store,
		Broker:      e.broker,
		Notifier:    e.notifier,
		FrontendURL: testFrontend,
		Now:         e.clock.Now,
	}
	e.linker = &Linker{
		Store:       e.store,
		OAuth:       e.oauth,
		Broker:      e.broker,
		Tokens:      e.signer,
		FrontendURL: testFrontend,
		Now:         e.clock.Now,
	}
	e.team = &Team{
		Store:       e.store,
		Notifier:    e.notifier,
		FrontendURL: testFrontend,
		Now:         e.clock.Now,
	}
	e.accounts = &Accounts{
		Store:    e.store,
		Hasher:   security.NewFast(),
		Tokens:   e.signer,
		Notifier: e.notifier,
		Now:      e.clock.Now,
	}

	return e
}

func (e *testEnv) youtuber(t *testing.T, id string, linked bool) *model.User {
	t.Helper()

	u := &model.User{ID: id, Email: id + "@example.com", PasswordHash: "hash", Role: model.RoleYoutuber, Status: model.UserActive}
	if linked {
		linkedAt := start
		u.Google = model.GoogleLink{RefreshToken: "refresh-" + id, LinkedAt: &linkedAt}
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))

	return u
}

func (e *testEnv) editor(t *testing.T, id, youtuberID string) *model.User {
	t.Helper()

	owner := youtuberID
	u := &model.User{ID: id, Email: id + "@example.com", PasswordHash: "hash", Role: model.RoleEditor, YoutuberID: &owner, Status: model.UserActive}
	require.NoError(t, e.store.CreateUser(context.Background(), u))

	return u
}

func (e *testEnv) reload(t *testing.T, id string) *model.User {
	t.Helper()

	u, err := e.store.UserByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

var errBoom = errors.New("boom")
