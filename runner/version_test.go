package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/status", r.URL.Path)
		w.Write([]byte(`{"version": "1.14.0", "status": "available"}`))
	}))
	defer srv.Close()

	v := FetchVersion(context.Background(), srv.URL+"/autocomplete", testLogger())
	require.NotNil(t, v)
	assert.Equal(t, "1.14.0", *v)
}

func TestFetchVersionNonMimirURL(t *testing.T) {
	// geocoders without an autocomplete endpoint expose no status route
	assert.Nil(t, FetchVersion(context.Background(), "http://geo.local/search", testLogger()))
}

func TestFetchVersionErrorsYieldNil(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte("not json"))
			},
		},
		{
			name: "missing version field",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"status": "available"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			assert.Nil(t, FetchVersion(context.Background(), srv.URL+"/autocomplete", testLogger()))
		})
	}
}

func TestFetchVersionUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	assert.Nil(t, FetchVersion(context.Background(), srv.URL+"/autocomplete", testLogger()))
}
