package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/secsplit/app/server/mocks"
	"github.com/umputun/secsplit/app/shares"
	"github.com/umputun/secsplit/app/store"
)

// newTestServer creates a server with the given mock and no auth.
func newTestServer(t *testing.T, sessions *mocks.SessionsMock) *Server {
	t.Helper()
	srv, err := New(sessions, Config{Version: "test"})
	require.NoError(t, err)
	return srv
}

func TestServer_SaveHandler(t *testing.T) {
	sessions := &mocks.SessionsMock{
		SaveFunc: func(_ context.Context, _ string, _ []string, _ map[string]string) error {
			return nil
		},
	}
	srv := newTestServer(t, sessions)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	body := `{"data":{"user":"alice","theme":"dark"}}`
	resp, err := http.Post(ts.URL+"/api/v1/session/checkout", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, sessions.SaveCalls(), 1)
	call := sessions.SaveCalls()[0]
	assert.Equal(t, "checkout", call.ID)
	assert.Equal(t, map[string]string{"user": "alice", "theme": "dark"}, call.Data)
	assert.Empty(t, call.Keys)
}

func TestServer_SaveHandler_KeysSubset(t *testing.T) {
	sessions := &mocks.SessionsMock{
		SaveFunc: func(_ context.Context, _ string, _ []string, _ map[string]string) error {
			return nil
		},
	}
	srv := newTestServer(t, sessions)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	body := `{"keys":["user"],"data":{"user":"alice","theme":"dark"}}`
	resp, err := http.Post(ts.URL+"/api/v1/session/checkout", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, sessions.SaveCalls(), 1)
	assert.Equal(t, []string{"user"}, sessions.SaveCalls()[0].Keys)
}

func TestServer_SaveHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		saveErr  error
		body     string
		wantCode int
	}{
		{"oversized value", fmt.Errorf("field user: %w", shares.ErrOverflow), `{"data":{"user":"x"}}`, http.StatusBadRequest},
		{"store failure", errors.New("db down"), `{"data":{"user":"x"}}`, http.StatusInternalServerError},
		{"bad json body", nil, `{"data":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &mocks.SessionsMock{
				SaveFunc: func(_ context.Context, _ string, _ []string, _ map[string]string) error {
					return tt.saveErr
				},
			}
			srv := newTestServer(t, sessions)
			ts := httptest.NewServer(srv.routes())
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/api/v1/session/s1", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantCode, resp.StatusCode)
		})
	}
}

func TestServer_LoadHandler(t *testing.T) {
	sessions := &mocks.SessionsMock{
		LoadFunc: func(_ context.Context, id string, keys []string) (map[string]string, error) {
			assert.Equal(t, "checkout", id)
			assert.Equal(t, []string{"user", "theme"}, keys)
			return map[string]string{"user": "alice"}, nil
		},
	}
	srv := newTestServer(t, sessions)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/session/checkout?key=user&key=theme")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Session string            `json:"session"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "checkout", result.Session)
	assert.Equal(t, map[string]string{"user": "alice"}, result.Data)
}

func TestServer_LoadHandler_UnknownSession(t *testing.T) {
	sessions := &mocks.SessionsMock{
		LoadFunc: func(_ context.Context, _ string, _ []string) (map[string]string, error) {
			return map[string]string{}, nil
		},
	}
	srv := newTestServer(t, sessions)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/session/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "unknown session is empty, not an error")
}

func TestServer_ClearHandler(t *testing.T) {
	sessions := &mocks.SessionsMock{
		ClearFunc: func(_ context.Context, id string) error {
			assert.Equal(t, "checkout", id)
			return nil
		},
	}
	srv := newTestServer(t, sessions)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/session/checkout", http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, sessions.ClearCalls(), 1)
}

func TestServer_ListHandler(t *testing.T) {
	now := time.Now()
	sessions := &mocks.SessionsMock{
		ListFunc: func(_ context.Context) ([]store.DocInfo, error) {
			return []store.DocInfo{
				{Slot: "checkout", Size: 100, CreatedAt: now, UpdatedAt: now},
				{Slot: "cart", Size: 50, CreatedAt: now, UpdatedAt: now},
			}, nil
		},
	}
	srv := newTestServer(t, sessions)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result []store.DocInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result, 2)
	assert.Equal(t, "checkout", result[0].Slot)
}

func TestServer_ListHandler_AuthFiltered(t *testing.T) {
	authConfig := `
tokens:
  - token: "reader"
    permissions:
      - prefix: "checkout/*"
        access: r
`
	f := createTempFile(t, authConfig)

	now := time.Now()
	sessions := &mocks.SessionsMock{
		ListFunc: func(_ context.Context) ([]store.DocInfo, error) {
			return []store.DocInfo{
				{Slot: "checkout/a", CreatedAt: now, UpdatedAt: now},
				{Slot: "cart/b", CreatedAt: now, UpdatedAt: now},
			}, nil
		},
	}
	srv, err := New(sessions, Config{Version: "test", AuthFile: f})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/sessions", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer reader")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result []store.DocInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result, 1, "only readable sessions listed")
	assert.Equal(t, "checkout/a", result[0].Slot)
}

func TestServer_ListHandler_TokenWithoutMatches(t *testing.T) {
	authConfig := `
tokens:
  - token: "reader"
    permissions:
      - prefix: "checkout/*"
        access: r
`
	f := createTempFile(t, authConfig)

	now := time.Now()
	sessions := &mocks.SessionsMock{
		ListFunc: func(_ context.Context) ([]store.DocInfo, error) {
			return []store.DocInfo{{Slot: "cart/b", CreatedAt: now, UpdatedAt: now}}, nil
		},
	}
	srv, err := New(sessions, Config{Version: "test", AuthFile: f})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	// a valid token that can read nothing gets an empty list, not a 401
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/sessions", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer reader")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result []store.DocInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Empty(t, result)
}

func TestServer_LoginLogout(t *testing.T) {
	// bcrypt hash for "testpass"
	authConfig := `
users:
  - name: admin
    password: "$2a$10$mYptn.gre3pNHlkiErjUkuCqVZgkOjWmSG5JzlKqPESw/TU5dtGB6"
    permissions:
      - prefix: "*"
        access: rw
`
	f := createTempFile(t, authConfig)

	sessions := &mocks.SessionsMock{
		LoadFunc: func(_ context.Context, _ string, _ []string) (map[string]string, error) {
			return map[string]string{}, nil
		},
	}
	srv, err := New(sessions, Config{Version: "test", AuthFile: f, LoginTTL: time.Hour})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	// bad credentials rejected
	resp, err := http.Post(ts.URL+"/auth/login", "application/json",
		strings.NewReader(`{"user":"admin","passwd":"wrong"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// good credentials get a bearer token
	resp, err = http.Post(ts.URL+"/auth/login", "application/json",
		strings.NewReader(`{"user":"admin","passwd":"testpass"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	require.NotEmpty(t, loginResp.Token)

	// bearer grants access per user ACL
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/session/any", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	// logout invalidates the bearer
	req, err = http.NewRequest(http.MethodPost, ts.URL+"/auth/logout", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	resp3, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp3.Body.Close()
	require.Equal(t, http.StatusOK, resp3.StatusCode)

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/api/v1/session/any", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	resp4, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp4.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp4.StatusCode)
}

func TestServer_Ping(t *testing.T) {
	srv := newTestServer(t, &mocks.SessionsMock{})
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_BaseURL(t *testing.T) {
	sessions := &mocks.SessionsMock{
		LoadFunc: func(_ context.Context, _ string, _ []string) (map[string]string, error) {
			return map[string]string{}, nil
		},
	}
	srv, err := New(sessions, Config{Version: "test", BaseURL: "/secsplit"})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/secsplit/api/v1/session/s1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Run(t *testing.T) {
	srv := newTestServer(t, &mocks.SessionsMock{})
	srv.cfg.Address = "127.0.0.1:0"
	srv.cfg.ShutdownTimeout = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := srv.Run(ctx)
	require.NoError(t, err, "server should shut down cleanly on context cancel")
}
