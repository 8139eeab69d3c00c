package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"memehub/internal/config"
	"memehub/internal/models"
	"memehub/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeStore is an in-memory ObjectStore for handler tests. Presigned URLs
// carry a generation counter so tests can observe refreshes.
type fakeStore struct {
	objects    map[string][]byte
	presigns   int
	presignErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(_ context.Context, key string, content io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	f.presigns++
	return fmt.Sprintf("https://store.test/%s?gen=%d", key, f.presigns), nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "handler-test-secret-0123456789ab",
		TokenTTLMinutes: 30,
		MaxUploadSizeMB: 20,
		Env:             "test",
	}
}

// newTestServer builds a full server on an isolated in-memory database and a
// fake object store, with routes registered the same way production does.
func newTestServer(t *testing.T) (*fiber.App, *Server, *fakeStore) {
	t.Helper()

	// A named shared-cache DB keeps gorm's connection pool on one database
	// while isolating each test from the others.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Meme{}, &models.Like{}))

	store := newFakeStore()
	srv, err := NewServerWithDeps(testConfig(), db, nil, store)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{BodyLimit: 32 << 20})
	srv.SetupRoutes(app)
	return app, srv, store
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// registerAndLogin creates an account via the public endpoints and returns a
// bearer token for it.
func registerAndLogin(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	return login(t, app, username, password)
}

func login(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/token", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decodeBody[service.Token](t, resp)
	require.Equal(t, "bearer", token.TokenType)
	return token.AccessToken
}

// adminToken bootstraps an admin account directly through the service layer
// and logs it in.
func adminToken(t *testing.T, app *fiber.App, srv *Server) string {
	t.Helper()
	cfg := *srv.config
	cfg.AdminUsername = "root"
	cfg.AdminPassword = "rootpassword1"
	require.NoError(t, srv.userService.EnsureAdmin(context.Background(), &cfg))
	return login(t, app, "root", "rootpassword1")
}

// uploadMeme posts a multipart form with a small fake PNG and returns the
// created meme.
func uploadMeme(t *testing.T, app *fiber.App, token, title string) models.Meme {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	require.NoError(t, writer.WriteField("title", title))
	require.NoError(t, writer.WriteField("description", "test upload"))

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="meme.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/memes/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[models.Meme](t, resp)
}
