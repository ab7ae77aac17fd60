package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/feed-api/internal/auth"
	"github.com/ayush/feed-api/internal/logger"
	"github.com/ayush/feed-api/internal/store/memstore"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type memRevocations struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func (m *memRevocations) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[jti] = expiresAt
	return nil
}

func (m *memRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[jti]
	return ok, nil
}

type testServer struct {
	*httptest.Server
	images *memstore.ImageStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	images := memstore.NewImageStore()
	h := NewRouter(Deps{
		Users:          memstore.NewUserStore(),
		Posts:          memstore.NewPostStore(),
		Images:         images,
		Tokens:         auth.NewTokenService(testSecret, time.Hour),
		Hasher:         &auth.BcryptHasher{Cost: bcrypt.MinCost},
		Revocations:    &memRevocations{ids: map[string]time.Time{}},
		Log:            logger.Discard(),
		FeedPageSize:   2,
		MaxUploadBytes: 1 << 20,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, images: images}
}

func (s *testServer) call(t *testing.T, method, path, token string, body io.Reader, contentType string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (s *testServer) callJSON(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return s.call(t, method, path, token, bytes.NewReader(b), "application/json")
}

func postForm(t *testing.T, title, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", title))
	require.NoError(t, mw.WriteField("content", content))
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="cat.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	status, body := s.call(t, http.MethodGet, "/health", "", nil, "")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestFeedRequiresToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/feed/posts", "/feed/status", "/feed/post/abc"} {
		status, body := s.call(t, http.MethodGet, path, "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.Equal(t, "Not authenticated.", body["message"], path)
	}

	status, _ := s.call(t, http.MethodGet, "/feed/posts", "not-a-jwt", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestEndToEnd(t *testing.T) {
	s := newTestServer(t)

	status, body := s.callJSON(t, http.MethodPost, "/auth/signup", "",
		map[string]string{"email": "alice@example.com", "password": "secret", "name": "Alice"})
	require.Equal(t, http.StatusCreated, status)
	userID := body["userId"].(string)
	assert.Equal(t, "alice@example.com", body["user"].(map[string]any)["email"])

	status, _ = s.callJSON(t, http.MethodPost, "/auth/signup", "",
		map[string]string{"email": "ALICE@example.com", "password": "secret", "name": "Alice"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = s.callJSON(t, http.MethodPost, "/auth/login", "",
		map[string]string{"email": "alice@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, userID, body["userId"])
	token := body["token"].(string)

	form, ct := postForm(t, "First post", "Hello world")
	status, body = s.call(t, http.MethodPost, "/feed/post", token, form, ct)
	require.Equal(t, http.StatusCreated, status)
	post := body["post"].(map[string]any)
	postID := post["_id"].(string)
	imageURL := post["imageUrl"].(string)
	assert.Equal(t, "Alice", body["creator"].(map[string]any)["name"])

	resp, err := s.Client().Get(s.URL + "/" + imageURL)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	status, body = s.call(t, http.MethodGet, "/feed/posts?page=1", token, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["totalItems"])

	status, body = s.call(t, http.MethodGet, "/feed/post/"+postID, token, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "First post", body["post"].(map[string]any)["title"])

	status, _ = s.callJSON(t, http.MethodPut, "/feed/status", token, map[string]string{"status": "Writing"})
	require.Equal(t, http.StatusOK, status)
	status, body = s.call(t, http.MethodGet, "/feed/status", token, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Writing", body["status"])

	status, _ = s.call(t, http.MethodDelete, "/feed/post/"+postID, token, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Zero(t, s.images.Len())

	status, _ = s.call(t, http.MethodGet, "/feed/post/"+postID, token, nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.call(t, http.MethodPost, "/auth/logout", token, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out.", body["message"])

	status, body = s.call(t, http.MethodGet, "/feed/posts", token, nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked.", body["message"])
}

func TestServeImage_Missing(t *testing.T) {
	s := newTestServer(t)

	status, body := s.call(t, http.MethodGet, "/images/nope.png", "", nil, "")

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Image not found.", body["message"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, s.URL+"/feed/posts", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
