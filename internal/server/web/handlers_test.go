package web

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/okovalenko/mediadrop/internal/common"
	"github.com/okovalenko/mediadrop/internal/logging"
	"github.com/okovalenko/mediadrop/internal/server/blob"
	"github.com/okovalenko/mediadrop/internal/server/config"
	"github.com/okovalenko/mediadrop/internal/server/models"
	"github.com/okovalenko/mediadrop/internal/server/sessions"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

// fakeUserService implements the UserService slice the handlers use.
type fakeUserService struct {
	registerErr error
	lastRole    string

	verifyUser *models.User
	verifyErr  error

	resetErr    error
	resetCalled bool
}

func (f *fakeUserService) Register(ctx context.Context, username, password, role string) (*models.User, error) {
	f.lastRole = role
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.User{ID: 1, Username: username, Role: role}, nil
}

func (f *fakeUserService) Verify(ctx context.Context, username, password string) (*models.User, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyUser, nil
}

func (f *fakeUserService) ResetPassword(ctx context.Context, username, newPassword string) error {
	f.resetCalled = true
	return f.resetErr
}

// fakeMediaService implements the MediaService slice the handlers use. When
// blobs is set, Upload writes through to it so playback tests see the bytes.
type fakeMediaService struct {
	blobs blob.Store

	files   []*models.MediaFile
	listErr error

	uploaded  []string
	uploadErr error

	deleted   []int64
	deleteErr error
}

func (f *fakeMediaService) List(ctx context.Context) ([]*models.MediaFile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.files, nil
}

func (f *fakeMediaService) Upload(ctx context.Context, content io.Reader, originalName string) (*models.MediaFile, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploaded = append(f.uploaded, originalName)

	storedName := "stored-" + originalName
	if f.blobs != nil {
		var err error
		storedName, err = f.blobs.Save(ctx, content, ".mp3")
		if err != nil {
			return nil, err
		}
	}
	file := &models.MediaFile{ID: int64(len(f.files) + 1), StoredName: storedName, OriginalName: originalName, UploadedAt: time.Now()}
	f.files = append([]*models.MediaFile{file}, f.files...)
	return file, nil
}

func (f *fakeMediaService) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	kept := f.files[:0]
	for _, file := range f.files {
		if file.ID != id {
			kept = append(kept, file)
		} else if f.blobs != nil {
			_ = f.blobs.Delete(ctx, file.StoredName)
		}
	}
	f.files = kept
	return nil
}

type testServer struct {
	handler  http.Handler
	users    *fakeUserService
	media    *fakeMediaService
	sessions *sessions.MemoryStore
	blobs    *blob.LocalStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.SessionTTL = time.Hour
	cfg.StreamTokenTTL = time.Minute

	store := sessions.NewMemoryStore()
	t.Cleanup(store.Close)

	blobs, err := blob.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore error: %v", err)
	}

	users := &fakeUserService{}
	media := &fakeMediaService{blobs: blobs}

	srv := NewServer(cfg, discardLogger(), users, media, store, blobs)
	return &testServer{
		handler:  srv.Handler(),
		users:    users,
		media:    media,
		sessions: store,
		blobs:    blobs,
	}
}

// loginAs creates a session directly in the store and returns its cookie.
func (ts *testServer) loginAs(t *testing.T, role string) *http.Cookie {
	t.Helper()
	session, err := ts.sessions.Create(context.Background(), &models.User{ID: 7, Username: "tester", Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("session create error: %v", err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: session.Token}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartUpload(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile error: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("multipart write error: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close error: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %q, got %q", location, got)
	}
}

// --- public routes ---

func TestRootRedirectsToLogin(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assertRedirect(t, w, "/login")
}

func TestRegister_Success(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(postForm("/register", url.Values{"username": {"alice"}, "password": {"pw"}, "role": {"admin"}}))

	assertRedirect(t, w, "/login")
	if ts.users.lastRole != "admin" {
		t.Fatalf("role from the form must reach the service, got %q", ts.users.lastRole)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ts := newTestServer(t)
	ts.users.registerErr = common.ErrorAlreadyExists

	w := ts.do(postForm("/register", url.Values{"username": {"alice"}, "password": {"pw"}}))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "already taken") {
		t.Fatalf("missing duplicate notice: %s", w.Body.String())
	}
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	ts := newTestServer(t)
	ts.users.verifyUser = &models.User{ID: 1, Username: "alice", Role: models.RoleUser}

	w := ts.do(postForm("/login", url.Values{"username": {"alice"}, "password": {"pw"}}))

	assertRedirect(t, w, "/dashboard")

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("session cookie not set")
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
	if _, err := ts.sessions.Get(context.Background(), cookie.Value); err != nil {
		t.Fatalf("cookie token not resolvable: %v", err)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.users.verifyErr = common.ErrorUnauthorized

	w := ts.do(postForm("/login", url.Values{"username": {"alice"}, "password": {"wrong"}}))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid credentials") {
		t.Fatalf("missing generic failure notice: %s", w.Body.String())
	}
}

func TestLogin_ReplacesExistingSession(t *testing.T) {
	ts := newTestServer(t)
	ts.users.verifyUser = &models.User{ID: 1, Username: "alice", Role: models.RoleUser}
	old := ts.loginAs(t, models.RoleUser)

	req := postForm("/login", url.Values{"username": {"alice"}, "password": {"pw"}})
	req.AddCookie(old)
	ts.do(req)

	if _, err := ts.sessions.Get(context.Background(), old.Value); err == nil {
		t.Fatal("old session must be destroyed on re-login")
	}
}

func TestReset_RedirectsForUnknownUserToo(t *testing.T) {
	ts := newTestServer(t)
	ts.users.resetErr = common.ErrorNotFound

	w := ts.do(postForm("/reset", url.Values{"username": {"ghost"}, "password": {"pw"}}))

	assertRedirect(t, w, "/login")
	if !ts.users.resetCalled {
		t.Fatal("reset must reach the service")
	}
}

func TestLogout_DestroysSession(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.loginAs(t, models.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	w := ts.do(req)

	assertRedirect(t, w, "/login")
	if _, err := ts.sessions.Get(context.Background(), cookie.Value); err == nil {
		t.Fatal("session must be destroyed on logout")
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName && c.MaxAge >= 0 {
			t.Fatal("session cookie must be cleared")
		}
	}
}

// --- authenticated routes ---

func TestDashboard_RequiresLogin(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assertRedirect(t, w, "/login")
}

func TestDashboard_ListsFiles(t *testing.T) {
	ts := newTestServer(t)
	ts.media.files = []*models.MediaFile{
		{ID: 2, StoredName: "b.mp3", OriginalName: "second.mp3"},
		{ID: 1, StoredName: "a.mp3", OriginalName: "first.mp3"},
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(ts.loginAs(t, models.RoleUser))
	w := ts.do(req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "second.mp3") || !strings.Contains(body, "first.mp3") {
		t.Fatalf("file listing incomplete: %s", body)
	}
	if strings.Contains(body, "/delete/") {
		t.Fatal("non-admins must not see delete links")
	}
}

func TestDashboard_AdminSeesControls(t *testing.T) {
	ts := newTestServer(t)
	ts.media.files = []*models.MediaFile{{ID: 1, StoredName: "a.mp3", OriginalName: "first.mp3"}}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(ts.loginAs(t, models.RoleAdmin))
	w := ts.do(req)

	body := w.Body.String()
	if !strings.Contains(body, "/delete/1") || !strings.Contains(body, "/upload") {
		t.Fatalf("admin controls missing: %s", body)
	}
}

// --- admin routes ---

func TestUpload_SavesFile(t *testing.T) {
	ts := newTestServer(t)

	req := multipartUpload(t, "media", "song.mp3", "bytes")
	req.AddCookie(ts.loginAs(t, models.RoleAdmin))
	w := ts.do(req)

	assertRedirect(t, w, "/dashboard")
	if len(ts.media.uploaded) != 1 || ts.media.uploaded[0] != "song.mp3" {
		t.Fatalf("upload did not reach the service: %v", ts.media.uploaded)
	}
}

func TestUpload_MissingFileField(t *testing.T) {
	ts := newTestServer(t)

	req := multipartUpload(t, "wrongfield", "song.mp3", "bytes")
	req.AddCookie(ts.loginAs(t, models.RoleAdmin))
	w := ts.do(req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(ts.media.uploaded) != 0 {
		t.Fatal("service must not be called without a file")
	}
}

func TestDelete_Admin(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/delete/5", nil)
	req.AddCookie(ts.loginAs(t, models.RoleAdmin))
	w := ts.do(req)

	assertRedirect(t, w, "/dashboard")
	if len(ts.media.deleted) != 1 || ts.media.deleted[0] != 5 {
		t.Fatalf("delete did not reach the service: %v", ts.media.deleted)
	}
}

func TestDelete_BadID(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/delete/abc", nil)
	req.AddCookie(ts.loginAs(t, models.RoleAdmin))
	w := ts.do(req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if len(ts.media.deleted) != 0 {
		t.Fatal("service must not be called for a bad id")
	}
}

// --- playback ---

func TestPlay_EmbedsTokenizedStreamURL(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	storedName, err := ts.blobs.Save(ctx, strings.NewReader("tune"), ".mp3")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/play/"+storedName, nil)
	req.AddCookie(ts.loginAs(t, models.RoleUser))
	w := ts.do(req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	marker := "/media/" + storedName + "?token="
	if !strings.Contains(body, marker) {
		t.Fatalf("tokenized stream URL missing: %s", body)
	}
	if !strings.Contains(body, "<audio") {
		t.Fatalf("mp3 must render as audio: %s", body)
	}

	// the embedded URL must actually stream, with no cookie attached
	start := strings.Index(body, marker)
	rest := body[start:]
	streamURL := rest[:strings.IndexByte(rest, '"')]

	sw := ts.do(httptest.NewRequest(http.MethodGet, streamURL, nil))
	if sw.Code != http.StatusOK {
		t.Fatalf("stream via token failed: %d", sw.Code)
	}
	if ct := sw.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Fatalf("expected audio/mpeg, got %q", ct)
	}
	if sw.Body.String() != "tune" {
		t.Fatalf("unexpected stream body: %q", sw.Body.String())
	}
}

func TestPlay_UnknownFile(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/play/nope.mp3", nil)
	req.AddCookie(ts.loginAs(t, models.RoleUser))
	w := ts.do(req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "File not found") {
		t.Fatalf("missing not-found notice: %s", w.Body.String())
	}
}

func TestStream_RequiresSessionOrToken(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	storedName, err := ts.blobs.Save(ctx, strings.NewReader("tune"), ".mp3")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	w := ts.do(httptest.NewRequest(http.MethodGet, "/media/"+storedName, nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("anonymous fetch must be forbidden, got %d", w.Code)
	}

	w = ts.do(httptest.NewRequest(http.MethodGet, "/media/"+storedName+"?token=garbage", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("garbage token must be forbidden, got %d", w.Code)
	}
}

func TestStream_TokenBoundToName(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	first, err := ts.blobs.Save(ctx, strings.NewReader("one"), ".mp3")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	second, err := ts.blobs.Save(ctx, strings.NewReader("two"), ".mp3")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	// mint a token for first via the play page, then aim it at second
	req := httptest.NewRequest(http.MethodGet, "/play/"+first, nil)
	req.AddCookie(ts.loginAs(t, models.RoleUser))
	body := ts.do(req).Body.String()

	marker := "?token="
	start := strings.Index(body, marker) + len(marker)
	token := body[start:]
	token = token[:strings.IndexByte(token, '"')]

	w := ts.do(httptest.NewRequest(http.MethodGet, "/media/"+second+"?token="+token, nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("token for another file must be forbidden, got %d", w.Code)
	}
}

func TestStream_WithSessionCookie(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	storedName, err := ts.blobs.Save(ctx, strings.NewReader("clip"), ".mp4")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/media/"+storedName, nil)
	req.AddCookie(ts.loginAs(t, models.RoleUser))
	w := ts.do(req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("expected video/mp4, got %q", ct)
	}
}

// TestAdminLifecycle walks the whole surface in order: register, log in,
// upload, see the file listed, delete it, see the listing empty again.
func TestAdminLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.users.verifyUser = &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin}

	w := ts.do(postForm("/register", url.Values{"username": {"admin"}, "password": {"pw"}, "role": {"admin"}}))
	assertRedirect(t, w, "/login")

	w = ts.do(postForm("/login", url.Values{"username": {"admin"}, "password": {"pw"}}))
	assertRedirect(t, w, "/dashboard")

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("no session cookie after login")
	}

	req := multipartUpload(t, "media", "song.mp3", "bytes")
	req.AddCookie(cookie)
	assertRedirect(t, ts.do(req), "/dashboard")

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	w = ts.do(req)
	if !strings.Contains(w.Body.String(), "song.mp3") {
		t.Fatalf("uploaded file not listed: %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/delete/1", nil)
	req.AddCookie(cookie)
	assertRedirect(t, ts.do(req), "/dashboard")

	names, err := ts.blobs.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("blob left behind after delete: %v", names)
	}

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	w = ts.do(req)
	if !strings.Contains(w.Body.String(), "No media yet") {
		t.Fatalf("listing not empty after delete: %s", w.Body.String())
	}
}

// presignLocalStore is a local store that also hands out direct URLs, the
// way the S3 backend does.
type presignLocalStore struct {
	*blob.LocalStore
}

func (p *presignLocalStore) PresignGet(ctx context.Context, storedName string, validity time.Duration) (string, error) {
	return "https://objects.example/" + storedName, nil
}

func TestStream_PresigningBackendRedirects(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"

	store := sessions.NewMemoryStore()
	t.Cleanup(store.Close)

	local, err := blob.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore error: %v", err)
	}
	blobs := &presignLocalStore{LocalStore: local}

	srv := NewServer(cfg, discardLogger(), &fakeUserService{}, &fakeMediaService{}, store, blobs)
	handler := srv.Handler()

	ctx := context.Background()
	storedName, err := blobs.Save(ctx, strings.NewReader("clip"), ".mp4")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	session, err := store.Create(ctx, &models.User{ID: 1, Username: "tester", Role: models.RoleUser}, time.Hour)
	if err != nil {
		t.Fatalf("session create error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/media/"+storedName, nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: session.Token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assertRedirect(t, w, "https://objects.example/"+storedName)
}

func TestStream_MissingBlob(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/media/gone.mp3", nil)
	req.AddCookie(ts.loginAs(t, models.RoleUser))
	w := ts.do(req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
