package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warta/internal/entry/model"
	"warta/internal/searchindex"
)

func newTestServer(t *testing.T) (*httptest.Server, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	index, err := searchindex.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	server := httptest.NewServer(Setup(db, index))
	t.Cleanup(server.Close)
	return server, mock
}

func signToken(t *testing.T, secret string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestDraftsRequireAuth(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "test-secret")
	server, mock := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/entries/drafts")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	mock.ExpectQuery("SELECT id, title, slug, content, published, timestamp FROM entries WHERE published = FALSE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "content", "published", "timestamp"}).
			AddRow(int64(1), "Draft", "draft", "body", false, time.Now()))

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/entries/drafts", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret"))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var drafts []model.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&drafts))
	require.Len(t, drafts, 1)
	assert.Equal(t, "draft", drafts[0].Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicListingNeedsNoAuth(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "test-secret")
	server, mock := newTestServer(t)

	mock.ExpectQuery("SELECT id, title, slug, content, published, timestamp FROM entries WHERE published = TRUE ORDER BY timestamp DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "content", "published", "timestamp"}).
			AddRow(int64(1), "Hello, World!", "hello-world", "body", true, time.Now()))

	resp, err := http.Get(server.URL + "/api/entries")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []model.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "hello-world", entries[0].Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRequiresAuth(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "test-secret")
	server, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/entries/create", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	server, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/entries", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
