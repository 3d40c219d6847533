package headers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	pkgerrors "github.com/glorpus-work/imagehunter/pkg/errors"
	"github.com/glorpus-work/imagehunter/pkg/headers"
	"github.com/glorpus-work/imagehunter/pkg/headers/mocks"
)

func newRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	return req
}

func TestDecorators(t *testing.T) {
	tests := []struct {
		name      string
		decorator headers.Decorator
		kind      headers.Kind
		header    string
		value     string
	}{
		{
			name:      "fixed",
			decorator: headers.Fixed{Headers: map[string]string{"accept-language": "de"}},
			kind:      headers.FixedKind,
			header:    "Accept-Language",
			value:     "de",
		},
		{
			name:      "referer url",
			decorator: headers.Referer{URL: "https://search.example/"},
			kind:      headers.RefererKind,
			header:    "Referer",
			value:     "https://search.example/",
		},
		{
			name:      "referer origin",
			decorator: headers.Referer{URL: headers.RefererOrigin},
			kind:      headers.RefererKind,
			header:    "Referer",
			value:     "https://img.example:8443/",
		},
		{
			name: "chain applies in order",
			decorator: headers.Chain{
				headers.Fixed{Headers: map[string]string{"X-Client": "one"}},
				headers.Fixed{Headers: map[string]string{"X-Client": "two"}},
			},
			kind:   headers.ChainKind,
			header: "X-Client",
			value:  "two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(t, "https://img.example:8443/t/a.jpg")
			require.NoError(t, tt.decorator.Apply(req))
			assert.Equal(t, tt.value, req.Header.Get(tt.header))
			assert.Equal(t, tt.kind, tt.decorator.Kind())
		})
	}
}

func TestChain_StopsAtError(t *testing.T) {
	ctrl := gomock.NewController(t)
	failing := mocks.NewMockDecorator(ctrl)
	never := mocks.NewMockDecorator(ctrl)
	failing.EXPECT().Apply(gomock.Any()).Return(assert.AnError)
	failing.EXPECT().Kind().Return(headers.FixedKind)

	err := headers.Chain{failing, never}.Apply(newRequest(t, "https://img.example/a.jpg"))
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "fixed")
}

func TestScoped_Matches(t *testing.T) {
	tests := []struct {
		hosts []string
		host  string
		match bool
	}{
		{hosts: []string{"img.example"}, host: "img.example", match: true},
		{hosts: []string{"IMG.example"}, host: "img.EXAMPLE", match: true},
		{hosts: []string{"img.example"}, host: "cdn.img.example", match: false},
		{hosts: []string{".example.com"}, host: "cdn.example.com", match: true},
		{hosts: []string{".example.com"}, host: "example.com", match: true},
		{hosts: []string{".example.com"}, host: "badexample.com", match: false},
		{hosts: []string{headers.AnyHost}, host: "anything.test", match: true},
		{hosts: nil, host: "img.example", match: false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.match, headers.Scoped{Hosts: tt.hosts}.Matches(tt.host))
		})
	}
}

func TestScoped_Apply(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockDecorator(ctrl)
	scoped := headers.Scoped{Hosts: []string{"img.example"}, Inner: inner}

	inScope := newRequest(t, "https://img.example:8443/a.jpg")
	inner.EXPECT().Apply(inScope).Return(nil)
	require.NoError(t, scoped.Apply(inScope))

	// Out of scope hosts never reach the inner decorator.
	require.NoError(t, scoped.Apply(newRequest(t, "https://other.example/a.jpg")))

	inner.EXPECT().Kind().Return(headers.RefererKind)
	assert.Equal(t, headers.RefererKind, scoped.Kind())
}

func TestRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    headers.Rule
		wantErr bool
	}{
		{name: "referer", rule: headers.Rule{Hosts: []string{"img.example"}, Referer: headers.RefererOrigin}},
		{name: "set", rule: headers.Rule{Hosts: []string{"*"}, Set: map[string]string{"X-Client": "ih"}}},
		{name: "both", rule: headers.Rule{Hosts: []string{"*"}, Referer: "https://a/", Set: map[string]string{"Accept-Language": "en"}}},
		{name: "no hosts", rule: headers.Rule{Referer: "https://a/"}, wantErr: true},
		{name: "nothing to set", rule: headers.Rule{Hosts: []string{"h"}}, wantErr: true},
		{name: "credentials", rule: headers.Rule{Hosts: []string{"h"}, Set: map[string]string{"authorization": "Bearer x"}}, wantErr: true},
		{name: "cookie", rule: headers.Rule{Hosts: []string{"h"}, Set: map[string]string{"Cookie": "a=b"}}, wantErr: true},
		{name: "referer twice", rule: headers.Rule{Hosts: []string{"h"}, Referer: "https://a/", Set: map[string]string{"referer": "https://b/"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, pkgerrors.ErrHeaderRuleInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBuild(t *testing.T) {
	d, err := headers.Build(nil)
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = headers.Build([]headers.Rule{
		{Hosts: []string{".example.com"}, Referer: headers.RefererOrigin},
		{Hosts: []string{"*"}, Set: map[string]string{"Accept-Language": "en"}},
	})
	require.NoError(t, err)

	req := newRequest(t, "http://cdn.example.com/a.jpg")
	require.NoError(t, d.Apply(req))
	assert.Equal(t, "http://cdn.example.com/", req.Header.Get("Referer"))
	assert.Equal(t, "en", req.Header.Get("Accept-Language"))

	other := newRequest(t, "http://other.test/a.jpg")
	require.NoError(t, d.Apply(other))
	assert.Empty(t, other.Header.Get("Referer"))

	_, err = headers.Build([]headers.Rule{{Hosts: []string{"*"}}})
	require.ErrorIs(t, err, pkgerrors.ErrHeaderRuleInvalid)
	assert.Contains(t, err.Error(), "rule 1")
}
