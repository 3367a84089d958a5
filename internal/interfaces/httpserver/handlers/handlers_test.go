package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbnobed/tdmedia-sub001/internal/config"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/media"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/streaming"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/auth"
	"github.com/tbnobed/tdmedia-sub001/internal/interfaces/httpserver/handlers"
	v1 "github.com/tbnobed/tdmedia-sub001/internal/interfaces/httpserver/routes/v1"
)

// fakeClock lets tests move time forward across a grant's validity window.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// memRepo is an in-memory media.Repository.
type memRepo struct {
	mu     sync.Mutex
	assets map[string]*media.MediaAsset
}

func newMemRepo() *memRepo {
	return &memRepo{assets: make(map[string]*media.MediaAsset)}
}

func (r *memRepo) Create(ctx context.Context, asset *media.MediaAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *asset
	r.assets[asset.ID] = &copied
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*media.MediaAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[id]
	if !ok {
		return nil, nil
	}
	copied := *asset
	return &copied, nil
}

func (r *memRepo) UpdateDerived(ctx context.Context, id string, thumbnailKey, durationLabel *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if asset, ok := r.assets[id]; ok {
		asset.ThumbnailKey = thumbnailKey
		asset.DurationLabel = durationLabel
	}
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.assets, id)
	return nil
}

// fakeStorage is an in-memory media.Storage.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *fakeStorage) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), "", nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *fakeStorage) Health(ctx context.Context) error { return nil }

func (s *fakeStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// stubDeriver reports background derivation triggers without doing work.
type stubDeriver struct {
	derived chan string
}

func (d *stubDeriver) Derive(ctx context.Context, asset *media.MediaAsset) (*media.MediaAsset, error) {
	select {
	case d.derived <- asset.ID:
	default:
	}
	return asset, nil
}

type testEnv struct {
	repo    *memRepo
	storage *fakeStorage
	deriver *stubDeriver
	stream  *streaming.Service
	clock   *fakeClock
}

func newRouter(t *testing.T, subject string) (*gin.Engine, *testEnv) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		StreamSigningSecret: "unit-test-signing-secret-0001",
		StreamGrantTTL:      600 * time.Second,
		MaxMediaBytes:       16 * 1024 * 1024,
	}
	env := &testEnv{
		repo:    newMemRepo(),
		storage: newFakeStorage(),
		deriver: &stubDeriver{derived: make(chan string, 4)},
		clock:   &fakeClock{now: time.Now()},
	}
	env.stream = streaming.NewService(cfg, zerolog.Nop(), streaming.WithClock(env.clock.Now))

	svc := media.NewService(cfg, env.repo, env.storage, env.deriver, zerolog.Nop())
	provider := handlers.NewProvider(cfg, svc, env.stream, zerolog.Nop())

	engine := gin.New()
	engine.Use(func(c *gin.Context) { c.Set(auth.SubjectKey, subject) })
	v1.NewRoutes(provider).Register(engine.Group("/"))
	return engine, env
}

func (e *testEnv) seedAsset(t *testing.T, asset *media.MediaAsset, content []byte) {
	t.Helper()
	if err := e.repo.Create(context.Background(), asset); err != nil {
		t.Fatal(err)
	}
	if content != nil {
		if err := e.storage.Upload(context.Background(), asset.StorageKey, bytes.NewReader(content), int64(len(content)), asset.MimeType); err != nil {
			t.Fatal(err)
		}
	}
}

func videoAsset(id string) *media.MediaAsset {
	return &media.MediaAsset{
		ID:         id,
		Title:      "clip",
		FileName:   "clip.mp4",
		Kind:       media.KindVideo,
		MimeType:   "video/mp4",
		SizeBytes:  9,
		StorageKey: "videos/" + id + ".mp4",
	}
}

func multipartUpload(t *testing.T, fileName string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, writer.FormDataContentType()
}

func doRequest(engine *gin.Engine, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestStreamServeHappyPath(t *testing.T) {
	engine, env := newRouter(t, "user-a")
	asset := videoAsset("td_stream1")
	env.seedAsset(t, asset, []byte("mp4 bytes"))

	grant := env.stream.Issue(asset.ID, "user-a")
	rec := doRequest(engine, http.MethodGet, grant.StreamPath(), nil, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	if got := rec.Body.String(); got != "mp4 bytes" {
		t.Errorf("body = %q, want primary bytes", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "private, no-store" {
		t.Errorf("Cache-Control = %q, want private, no-store", got)
	}
}

func TestStreamServeDenialsAreUniform(t *testing.T) {
	engine, env := newRouter(t, "user-a")
	asset := videoAsset("td_uniform")
	env.seedAsset(t, asset, []byte("mp4 bytes"))

	grant := env.stream.Issue(asset.ID, "user-a")

	tampered := grant.StreamPath()
	tampered = tampered[:len(tampered)-1] + flipHexDigit(tampered[len(tampered)-1])

	expiredGrant := env.stream.Issue(asset.ID, "user-a")
	env.clock.Advance(600*time.Second + time.Millisecond)

	denials := map[string]string{
		"tampered signature": tampered,
		"expired grant":      expiredGrant.StreamPath(),
		"missing params":     "/v1/stream/" + asset.ID,
		"garbled timestamp":  "/v1/stream/" + asset.ID + "?timestamp=soon&signature=" + grant.Signature,
	}

	var bodies []string
	for name, target := range denials {
		rec := doRequest(engine, http.MethodGet, target, nil, "")
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: status = %d, want 403", name, rec.Code)
		}
		bodies = append(bodies, rec.Body.String())
	}
	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Errorf("denial bodies differ: %q vs %q", bodies[i], bodies[0])
		}
	}
	if !strings.Contains(bodies[0], "unable to prepare stream") {
		t.Errorf("denial body = %q, want the uniform message", bodies[0])
	}
}

func TestStreamServeRejectsForeignSession(t *testing.T) {
	issuerEngine, env := newRouter(t, "user-a")
	asset := videoAsset("td_bound")
	env.seedAsset(t, asset, []byte("mp4 bytes"))

	grant := env.stream.Issue(asset.ID, "user-a")
	if rec := doRequest(issuerEngine, http.MethodGet, grant.StreamPath(), nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("owner playback status = %d, want 200", rec.Code)
	}

	// Same grant URL, different authenticated session.
	foreignEngine, foreignEnv := newRouter(t, "user-b")
	foreignEnv.seedAsset(t, asset, []byte("mp4 bytes"))
	rec := doRequest(foreignEngine, http.MethodGet, grant.StreamPath(), nil, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign session status = %d, want 403", rec.Code)
	}
}

func TestStreamValidGrantForDeletedMedia(t *testing.T) {
	engine, env := newRouter(t, "user-a")
	grant := env.stream.Issue("td_ghost", "user-a")

	rec := doRequest(engine, http.MethodGet, grant.StreamPath(), nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for missing asset with valid grant", rec.Code)
	}
}

func TestIngestCreatesAsset(t *testing.T) {
	engine, env := newRouter(t, "uploader-1")

	body, contentType := multipartUpload(t, "lecture.mp4", []byte("mp4 payload"), map[string]string{
		"title": "Intro lecture",
		"tags":  "training, onboarding",
	})
	rec := doRequest(engine, http.MethodPost, "/v1/media", body, contentType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body)
	}

	var resp struct {
		ID         string   `json:"id"`
		Title      string   `json:"title"`
		Kind       string   `json:"kind"`
		Bytes      int64    `json:"bytes"`
		Tags       []string `json:"tags"`
		UploadedBy string   `json:"uploaded_by"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.ID, "td_") {
		t.Errorf("id = %q, want td_ prefix", resp.ID)
	}
	if resp.Kind != "video" {
		t.Errorf("kind = %q, want video", resp.Kind)
	}
	if resp.Title != "Intro lecture" {
		t.Errorf("title = %q", resp.Title)
	}
	if len(resp.Tags) != 2 || resp.Tags[0] != "training" || resp.Tags[1] != "onboarding" {
		t.Errorf("tags = %v, want [training onboarding]", resp.Tags)
	}
	if resp.UploadedBy != "uploader-1" {
		t.Errorf("uploaded_by = %q, want uploader-1", resp.UploadedBy)
	}

	stored, err := env.repo.GetByID(context.Background(), resp.ID)
	if err != nil || stored == nil {
		t.Fatalf("asset not persisted: %v", err)
	}
	if !env.storage.has(stored.StorageKey) {
		t.Error("primary object not stored")
	}

	select {
	case id := <-env.deriver.derived:
		if id != resp.ID {
			t.Errorf("derivation triggered for %q, want %q", id, resp.ID)
		}
	case <-time.After(2 * time.Second):
		t.Error("derivation was not triggered for a video upload")
	}
}

func TestIngestRejectsUnknownExtension(t *testing.T) {
	engine, _ := newRouter(t, "uploader-1")

	body, contentType := multipartUpload(t, "tool.exe", []byte("MZ"), nil)
	rec := doRequest(engine, http.MethodPost, "/v1/media", body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body: %s", rec.Code, rec.Body)
	}
}

func TestIngestRejectsKindMismatch(t *testing.T) {
	engine, _ := newRouter(t, "uploader-1")

	body, contentType := multipartUpload(t, "clip.mp4", []byte("mp4 payload"), map[string]string{
		"kind": "document",
	})
	rec := doRequest(engine, http.MethodPost, "/v1/media", body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body: %s", rec.Code, rec.Body)
	}
}

func TestIngestRequiresFile(t *testing.T) {
	engine, _ := newRouter(t, "uploader-1")

	rec := doRequest(engine, http.MethodPost, "/v1/media", strings.NewReader("{}"), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestIssueStreamURLRoundTrip(t *testing.T) {
	engine, env := newRouter(t, "viewer-1")
	asset := videoAsset("td_issue")
	env.seedAsset(t, asset, []byte("mp4 bytes"))

	rec := doRequest(engine, http.MethodPost, "/v1/media/"+asset.ID+"/stream-url", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}

	var resp struct {
		URL       string `json:"url"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.URL, "/v1/stream/"+asset.ID+"?") {
		t.Errorf("url = %q, want /v1/stream/%s?...", resp.URL, asset.ID)
	}
	if resp.ExpiresIn != 600 {
		t.Errorf("expires_in = %d, want 600", resp.ExpiresIn)
	}

	playback := doRequest(engine, http.MethodGet, resp.URL, nil, "")
	if playback.Code != http.StatusOK {
		t.Errorf("playback with issued url: status = %d, want 200; body: %s", playback.Code, playback.Body)
	}
}

func TestIssueStreamURLUnknownMedia(t *testing.T) {
	engine, _ := newRouter(t, "viewer-1")

	rec := doRequest(engine, http.MethodPost, "/v1/media/td_missing/stream-url", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestThumbnailServed(t *testing.T) {
	engine, env := newRouter(t, "viewer-1")
	asset := videoAsset("td_thumb")
	thumbKey := media.ThumbnailPrefix(asset.ID) + "1700000000000.jpg"
	asset.ThumbnailKey = &thumbKey
	env.seedAsset(t, asset, []byte("mp4 bytes"))
	if err := env.storage.Upload(context.Background(), thumbKey, strings.NewReader("jpeg bytes"), 10, "image/jpeg"); err != nil {
		t.Fatal(err)
	}

	rec := doRequest(engine, http.MethodGet, "/v1/media/"+asset.ID+"/thumbnail", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	if rec.Body.String() != "jpeg bytes" {
		t.Errorf("body = %q, want thumbnail bytes", rec.Body)
	}
	if got := rec.Header().Get("Cache-Control"); got != "private, no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestThumbnailMissing(t *testing.T) {
	engine, env := newRouter(t, "viewer-1")
	asset := videoAsset("td_nothumb")
	env.seedAsset(t, asset, []byte("mp4 bytes"))

	rec := doRequest(engine, http.MethodGet, "/v1/media/"+asset.ID+"/thumbnail", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteRemovesArtifacts(t *testing.T) {
	engine, env := newRouter(t, "admin-1")
	asset := videoAsset("td_gone")
	env.seedAsset(t, asset, []byte("mp4 bytes"))
	for i := 0; i < 2; i++ {
		key := fmt.Sprintf("%s%d.jpg", media.ThumbnailPrefix(asset.ID), i)
		if err := env.storage.Upload(context.Background(), key, strings.NewReader("x"), 1, "image/jpeg"); err != nil {
			t.Fatal(err)
		}
	}

	rec := doRequest(engine, http.MethodDelete, "/v1/media/"+asset.ID, nil, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204; body: %s", rec.Code, rec.Body)
	}

	if env.storage.has(asset.StorageKey) {
		t.Error("primary object still present after delete")
	}
	keys, _ := env.storage.List(context.Background(), media.ThumbnailPrefix(asset.ID))
	if len(keys) != 0 {
		t.Errorf("thumbnails still present after delete: %v", keys)
	}
	if stored, _ := env.repo.GetByID(context.Background(), asset.ID); stored != nil {
		t.Error("catalog row still present after delete")
	}
}

func TestGetMediaMetadata(t *testing.T) {
	engine, env := newRouter(t, "viewer-1")
	asset := videoAsset("td_meta")
	label := "00:02:11"
	thumbKey := media.ThumbnailPrefix(asset.ID) + "1700000000000.jpg"
	asset.DurationLabel = &label
	asset.ThumbnailKey = &thumbKey
	env.seedAsset(t, asset, nil)

	rec := doRequest(engine, http.MethodGet, "/v1/media/"+asset.ID, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		ID            string `json:"id"`
		DurationLabel string `json:"duration_label"`
		ThumbnailURL  string `json:"thumbnail_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.DurationLabel != "00:02:11" {
		t.Errorf("duration_label = %q, want 00:02:11", resp.DurationLabel)
	}
	if want := "/v1/media/" + asset.ID + "/thumbnail"; resp.ThumbnailURL != want {
		t.Errorf("thumbnail_url = %q, want %q", resp.ThumbnailURL, want)
	}
}

func flipHexDigit(b byte) string {
	if b == 'f' {
		return "0"
	}
	return "f"
}
