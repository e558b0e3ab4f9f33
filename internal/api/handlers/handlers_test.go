package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/astralpath/interstellar/internal/api"
	"github.com/astralpath/interstellar/internal/api/handlers"
	"github.com/astralpath/interstellar/internal/models"
	"github.com/astralpath/interstellar/internal/repositories"
	"github.com/astralpath/interstellar/internal/session"
	"github.com/astralpath/interstellar/internal/web"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserStore is an in-memory UserStore with the same conflict semantics
// as the real repository.
type fakeUserStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	updateErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repositories.ErrDuplicateUser
		}
	}
	user.ID = uuid.New()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserStore) UpdateProfilePic(ctx context.Context, userID uuid.UUID, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.ProfilePic = &path
	return nil
}

func (f *fakeUserStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

func (f *fakeUserStore) get(username string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

type testApp struct {
	srv     *httptest.Server
	client  *http.Client
	store   *fakeUserStore
	disk    *repositories.DiskStorage
	handler *handlers.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store := newFakeUserStore()
	disk, err := repositories.NewDiskStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	h := &handlers.Handler{
		Users:      store,
		Sessions:   session.NewManager(0, false),
		Storage:    disk,
		Render:     renderer,
		Secret:     []byte("test-secret"),
		BcryptCost: bcrypt.MinCost,
		UploadDir:  disk.Dir,
	}

	srv := httptest.NewServer(api.SetupRouter(h))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testApp{srv: srv, client: client, store: store, disk: disk, handler: h}
}

func (a *testApp) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := a.client.PostForm(a.srv.URL+path, form)
	require.NoError(t, err)
	return resp
}

func (a *testApp) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := a.client.Get(a.srv.URL + path)
	require.NoError(t, err)
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func (a *testApp) signup(t *testing.T, username, email, password string) *http.Response {
	t.Helper()
	return a.postForm(t, "/signup", url.Values{
		"username": {username},
		"email":    {email},
		"password": {password},
	})
}

func (a *testApp) login(t *testing.T, username, password string) *http.Response {
	t.Helper()
	return a.postForm(t, "/login", url.Values{
		"username": {username},
		"password": {password},
	})
}

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

func (a *testApp) csrfToken(t *testing.T) string {
	t.Helper()
	resp := a.get(t, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode, "must be logged in to fetch the dashboard")
	m := csrfPattern.FindStringSubmatch(body(t, resp))
	require.Len(t, m, 2, "dashboard must embed a csrf token")
	return m[1]
}

func (a *testApp) upload(t *testing.T, fields map[string]string, filename string, content []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("profilePic", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, a.srv.URL+"/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := a.client.Do(req)
	require.NoError(t, err)
	return resp
}

func TestSignupValidationErrors(t *testing.T) {
	app := newTestApp(t)

	resp := app.signup(t, "al", "not-an-email", "123")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	html := body(t, resp)
	assert.Contains(t, html, "Username must be at least 3 characters")
	assert.Contains(t, html, "Enter a valid email address")
	assert.Contains(t, html, "Password must be at least 6 characters")

	assert.Equal(t, 0, app.store.count(), "validation failure must not create a user")
}

func TestSignupLoginProfileFlow(t *testing.T) {
	app := newTestApp(t)

	resp := app.signup(t, "alice", "a@x.com", "secret1")
	body(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// The success flash surfaces once on the login page, then drains.
	assert.Contains(t, body(t, app.get(t, "/login")), "Registration successful")
	assert.NotContains(t, body(t, app.get(t, "/login")), "Registration successful")

	resp = app.login(t, "alice", "secret1")
	body(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp = app.get(t, "/api/user/profile")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile struct {
		ID         string  `json:"id"`
		Username   string  `json:"username"`
		Email      string  `json:"email"`
		ProfilePic *string `json:"profile_pic"`
	}
	require.NoError(t, json.Unmarshal([]byte(body(t, resp)), &profile))
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "a@x.com", profile.Email)
	assert.Nil(t, profile.ProfilePic)
	assert.NotEmpty(t, profile.ID)
}

func TestSignupConflict(t *testing.T) {
	app := newTestApp(t)

	body(t, app.signup(t, "bob", "b@x.com", "secret1"))

	resp := app.signup(t, "bob", "other@x.com", "secret1")
	body(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/signup", resp.Header.Get("Location"))

	// The conflict flash names no field.
	assert.Contains(t, body(t, app.get(t, "/signup")), "Username or Email already exists")

	assert.Equal(t, 1, app.store.count(), "exactly one bob record exists")
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	app := newTestApp(t)
	body(t, app.signup(t, "alice", "a@x.com", "secret1"))

	wrongPass := app.login(t, "alice", "wrong-password")
	body(t, wrongPass)
	wrongPassPage := body(t, app.get(t, "/login"))

	unknownUser := app.login(t, "ghost", "secret1")
	body(t, unknownUser)
	unknownUserPage := body(t, app.get(t, "/login"))

	assert.Equal(t, wrongPass.StatusCode, unknownUser.StatusCode)
	assert.Equal(t, wrongPass.Header.Get("Location"), unknownUser.Header.Get("Location"))
	assert.Equal(t, "/login", unknownUser.Header.Get("Location"))

	// Both flows surface the same generic flash and render identically.
	assert.Contains(t, wrongPassPage, "Invalid username or password")
	assert.Equal(t, wrongPassPage, unknownUserPage)
}

func TestProtectedRoutesDeny(t *testing.T) {
	app := newTestApp(t)

	resp := app.get(t, "/dashboard")
	body(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = app.get(t, "/api/user/profile")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body(t, resp), `"success":false`)
}

func TestUploadUpdatesStoreAndSnapshot(t *testing.T) {
	app := newTestApp(t)
	body(t, app.signup(t, "alice", "a@x.com", "secret1"))
	body(t, app.login(t, "alice", "secret1"))

	token := app.csrfToken(t)
	resp := app.upload(t, map[string]string{"csrf_token": token}, "avatar.png", []byte("png-bytes"))
	body(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	stored := app.store.get("alice")
	require.NotNil(t, stored.ProfilePic)
	assert.True(t, strings.HasPrefix(*stored.ProfilePic, "/uploads/"))
	assert.True(t, strings.HasSuffix(*stored.ProfilePic, ".png"))

	// The session snapshot reflects the new path without a store round-trip.
	var profile struct {
		ProfilePic *string `json:"profile_pic"`
	}
	require.NoError(t, json.Unmarshal([]byte(body(t, app.get(t, "/api/user/profile"))), &profile))
	require.NotNil(t, profile.ProfilePic)
	assert.Equal(t, *stored.ProfilePic, *profile.ProfilePic)

	// And the file really landed in the upload area.
	name := strings.TrimPrefix(*stored.ProfilePic, "/uploads/")
	data, err := os.ReadFile(filepath.Join(app.disk.Dir, name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestUploadWithNoFile(t *testing.T) {
	app := newTestApp(t)
	body(t, app.signup(t, "alice", "a@x.com", "secret1"))
	body(t, app.login(t, "alice", "secret1"))

	token := app.csrfToken(t)
	resp := app.upload(t, map[string]string{"csrf_token": token}, "", nil)
	body(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	assert.Contains(t, body(t, app.get(t, "/dashboard")), "Please select a file to upload")
	assert.Nil(t, app.store.get("alice").ProfilePic, "no mutation on empty upload")
}

func TestUploadRejectsMissingCSRF(t *testing.T) {
	app := newTestApp(t)
	body(t, app.signup(t, "alice", "a@x.com", "secret1"))
	body(t, app.login(t, "alice", "secret1"))

	resp := app.upload(t, nil, "avatar.png", []byte("png-bytes"))
	body(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Nil(t, app.store.get("alice").ProfilePic)
}

func TestUploadStoreFailureCleansUpFile(t *testing.T) {
	app := newTestApp(t)
	body(t, app.signup(t, "alice", "a@x.com", "secret1"))
	body(t, app.login(t, "alice", "secret1"))

	token := app.csrfToken(t)
	app.store.updateErr = assert.AnError

	resp := app.upload(t, map[string]string{"csrf_token": token}, "avatar.png", []byte("png-bytes"))
	body(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	entries, err := os.ReadDir(app.disk.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "orphaned upload must be removed")
}

func TestLogoutDestroysSession(t *testing.T) {
	app := newTestApp(t)
	body(t, app.signup(t, "alice", "a@x.com", "secret1"))
	body(t, app.login(t, "alice", "secret1"))

	resp := app.get(t, "/logout")
	body(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp = app.get(t, "/dashboard")
	body(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestPublicData(t *testing.T) {
	app := newTestApp(t)

	resp := app.get(t, "/api/public-data")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(body(t, resp)), &payload))
	assert.Equal(t, "API is operational", payload.Message)
	assert.Equal(t, "success", payload.Status)
	assert.NotEmpty(t, payload.Timestamp)
}
