package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	pkgerrors "github.com/glorpus-work/imagehunter/pkg/errors"
	"github.com/glorpus-work/imagehunter/pkg/headers"
	"github.com/glorpus-work/imagehunter/pkg/headers/mocks"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name            string
		opts            Options
		expectedTimeout time.Duration
		expectedUA      string
	}{
		{
			name:            "defaults",
			opts:            Options{},
			expectedTimeout: 10 * time.Second,
			expectedUA:      DefaultOptions().UserAgent,
		},
		{
			name:            "custom",
			opts:            Options{Timeout: 2 * time.Second, UserAgent: "test-agent/1.0"},
			expectedTimeout: 2 * time.Second,
			expectedUA:      "test-agent/1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.opts)
			require.NotNil(t, c)
			assert.Equal(t, tt.expectedTimeout, c.client.Timeout)
			assert.Equal(t, tt.expectedUA, c.userAgent)
		})
	}
}

func TestGet_SendsHeaders(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg bytes"))
	}))
	defer server.Close()

	c := NewClient(Options{UserAgent: "ImageHunter/0.1 (thumb-loader)", Timeout: time.Second})
	resp, err := c.Get(context.Background(), server.URL+"/a.jpg")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(body))
	assert.Equal(t, int64(len("jpeg bytes")), resp.ContentLength)
	assert.Equal(t, "image/jpeg", resp.ContentType)
	assert.Equal(t, "ImageHunter/0.1 (thumb-loader)", gotUA)
	assert.Equal(t, AcceptHeader, gotAccept)
}

func TestGet_UnknownLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush() // forces chunked encoding
		_, _ = w.Write([]byte("streamed"))
	}))
	defer server.Close()

	resp, err := NewClient(Options{Timeout: time.Second}).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, int64(-1), resp.ContentLength)
}

func TestGet_Errors(t *testing.T) {
	tests := []struct {
		name          string
		handler       http.HandlerFunc
		url           string
		expectTimeout bool
		expectMsg     string
	}{
		{
			name:      "not found",
			handler:   func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) },
			expectMsg: "unexpected status code: 404",
		},
		{
			name:      "server error",
			handler:   func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			expectMsg: "unexpected status code: 500",
		},
		{
			name: "timeout",
			handler: func(_ http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			expectTimeout: true,
			expectMsg:     "timeout",
		},
		{
			name:      "unsupported scheme",
			url:       "ftp://example.com/a.jpg",
			expectMsg: "invalid URL",
		},
		{
			name:      "unreachable host",
			url:       "http://127.0.0.1:1/a.jpg",
			expectMsg: "network error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.url
			if tt.handler != nil {
				server := httptest.NewServer(tt.handler)
				defer server.Close()
				target = server.URL
			}

			c := NewClient(Options{Timeout: 100 * time.Millisecond})
			start := time.Now()
			resp, err := c.Get(context.Background(), target)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, pkgerrors.ErrNetwork)
			assert.Contains(t, err.Error(), tt.expectMsg)
			if tt.expectTimeout {
				assert.ErrorIs(t, err, pkgerrors.ErrTimeout)
				assert.Less(t, time.Since(start), time.Second)
			}
		})
	}
}

func TestGet_AppliesHeaderRules(t *testing.T) {
	var gotReferer, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("jpeg"))
	}))
	defer server.Close()

	tests := []struct {
		name        string
		rules       []headers.Rule
		wantReferer string
		wantUA      string
	}{
		{
			name:        "origin referer in scope",
			rules:       []headers.Rule{{Hosts: []string{"127.0.0.1"}, Referer: headers.RefererOrigin}},
			wantReferer: server.URL + "/",
			wantUA:      "agent/1",
		},
		{
			name:   "out of scope",
			rules:  []headers.Rule{{Hosts: []string{"img.example"}, Referer: "https://search.example/"}},
			wantUA: "agent/1",
		},
		{
			name:   "set overrides defaults",
			rules:  []headers.Rule{{Hosts: []string{headers.AnyHost}, Set: map[string]string{"User-Agent": "browser/5"}}},
			wantUA: "browser/5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := headers.Build(tt.rules)
			require.NoError(t, err)

			c := NewClient(Options{UserAgent: "agent/1", Headers: d})
			resp, err := c.Get(context.Background(), server.URL+"/a.jpg")
			require.NoError(t, err)
			_ = resp.Body.Close()

			assert.Equal(t, tt.wantReferer, gotReferer)
			assert.Equal(t, tt.wantUA, gotUA)
		})
	}
}

func TestGet_HeaderError(t *testing.T) {
	ctrl := gomock.NewController(t)
	failing := mocks.NewMockDecorator(ctrl)
	failing.EXPECT().Apply(gomock.Any()).Return(assert.AnError)
	failing.EXPECT().Kind().Return(headers.RefererKind)

	c := NewClient(Options{Headers: failing})
	_, err := c.Get(context.Background(), "http://127.0.0.1:1/a.jpg")
	require.ErrorIs(t, err, pkgerrors.ErrNetwork)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "referer")
}
