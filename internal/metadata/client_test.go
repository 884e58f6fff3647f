package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetch_Gateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/17.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"name":"Sphera #17","addition":4,"attributes":[{"trait_type":"Crest","value":"Rare"},{"trait_type":"Kit","value":"Epic"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", zap.NewNop())
	meta, err := c.Fetch(context.Background(), "17")
	require.NoError(t, err)

	assert.Equal(t, "Sphera #17", meta.Name)
	assert.Equal(t, 4, meta.Addition)
	assert.Len(t, meta.Attributes, 2)
}

func TestFetch_FallsBackToLocal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "17.json"),
		[]byte(`{"name":"Sphera #17","addition":2}`), 0o644))

	c := NewClient(srv.URL, dir, zap.NewNop())
	meta, err := c.Fetch(context.Background(), "17")
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Addition)
}

func TestFetch_BothSourcesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, t.TempDir(), zap.NewNop())
	_, err := c.Fetch(context.Background(), "17")
	assert.Error(t, err)
	// Both failure causes must survive into the returned error.
	assert.ErrorContains(t, err, "gateway")
	assert.ErrorContains(t, err, "local fallback")
}

func TestAdditionFromAttributes(t *testing.T) {
	cases := []struct {
		name  string
		attrs []Attribute
		want  int
	}{
		{name: "empty", attrs: nil, want: 0},
		{name: "commons are free", attrs: []Attribute{{Value: "Common"}, {Value: "Common"}}, want: 0},
		{
			name:  "mixed rarities",
			attrs: []Attribute{{Value: "Rare"}, {Value: "Epic"}, {Value: "Legendary"}},
			want:  9,
		},
		{name: "unknown rarity ignored", attrs: []Attribute{{Value: "Mythic"}, {Value: "Rare"}}, want: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AdditionFromAttributes(tc.attrs))
		})
	}
}
