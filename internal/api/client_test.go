package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, StaticToken("tok-1"), time.Second)
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	})

	require.NoError(t, c.Get(context.Background(), "/api/v1/ping", nil))
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestClientOmitsEmptyToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, StaticToken(""), time.Second)

	require.NoError(t, c.Get(context.Background(), "/api/v1/ping", nil))
	assert.Empty(t, gotAuth)
}

func TestErrorDetailExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail field", `{"detail":"folder not found"}`, "folder not found"},
		{"message field", `{"message":"quota exceeded"}`, "quota exceeded"},
		{"error field", `{"error":"bad subdomain"}`, "bad subdomain"},
		{"empty body", ``, GenericErrorMessage},
		{"non-json body", `<html>oops</html>`, GenericErrorMessage},
		{"blank detail", `{"detail":"  "}`, GenericErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			})

			err := c.Get(context.Background(), "/api/v1/thing", nil)
			require.Error(t, err)
			assert.Equal(t, tt.want, UserMessage(err))
		})
	}
}

func TestUserMessageNilError(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
}

func TestUserMessageTransportFailure(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", nil, 100*time.Millisecond)

	err := c.Get(context.Background(), "/api/v1/thing", nil)
	require.Error(t, err)
	assert.Equal(t, GenericErrorMessage, UserMessage(err))
	assert.False(t, IsAuthError(err))
}

func TestIsAuthError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := c.Get(context.Background(), "/api/v1/thing", nil)
	require.Error(t, err)
	assert.True(t, IsAuthError(err))

	assert.False(t, IsAuthError(errors.New("plain")))
}

func TestQuerySkipsEmptyValues(t *testing.T) {
	assert.Equal(t, "", Query(map[string]string{"a": ""}))
	assert.Equal(t, "?limit=10", Query(map[string]string{"limit": "10", "app": ""}))
}
