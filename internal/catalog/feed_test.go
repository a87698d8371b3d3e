package catalog

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFeed_Array(t *testing.T) {
	raw := `[
		{"id": 11, "name": "SMSTS | batch A", "reference": "smsts", "price": "450.00",
		 "venue": "Stratford", "start_date": "Mon 15th December 2025", "link": "https://example.test/11"},
		{"id": "12", "name": "SSSTS", "price": 240, "venue": "Chelmsford", "start_date": "Tue 16th December 2025"}
	]`

	got, err := DecodeFeed([]byte(raw), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 11, got[0].ID)
	assert.Equal(t, "SMSTS", got[0].DisplayName())
	assert.Equal(t, "https://example.test/11", got[0].Link)
	assert.Equal(t, 12, got[1].ID)
	assert.Equal(t, "240", got[1].Price)
}

func TestDecodeFeed_ObjectOfObjects(t *testing.T) {
	raw := `{
		"10": {"id": 10, "name": "B", "start_date": "1st May 2026"},
		"2":  {"id": 2,  "name": "A", "start_date": "2nd May 2026"}
	}`

	got, err := DecodeFeed([]byte(raw), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].ID, "numeric keys sort numerically")
	assert.Equal(t, 10, got[1].ID)
}

func TestDecodeFeed_Rejects(t *testing.T) {
	for _, raw := range []string{"", `"string"`, `42`, `{broken`, `[{"id": 1}`} {
		_, err := DecodeFeed([]byte(raw), nil)
		assert.Error(t, err, raw)
	}
}

func TestDecodeFeed_SkipsMalformedRecords(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []int
	}{
		{
			name: "object valued venue in array",
			raw: `[
				{"id": 1, "name": "SMSTS", "venue": "Stratford", "start_date": "Mon 15th December 2025"},
				{"id": 2, "name": "SSSTS", "venue": {"city": "London"}, "start_date": "Tue 16th December 2025"},
				{"id": 3, "name": "HSA", "venue": "Online", "start_date": "Wed 17th December 2025"}
			]`,
			want: []int{1, 3},
		},
		{
			name: "non numeric id in array",
			raw:  `[{"id": "abc", "name": "X"}, {"id": 4, "name": "Y"}]`,
			want: []int{4},
		},
		{
			name: "record that is not an object in keyed feed",
			raw:  `{"1": {"id": 1, "name": "A"}, "2": "oops", "3": {"id": 3, "name": "C"}}`,
			want: []int{1, 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))

			got, err := DecodeFeed([]byte(tt.raw), logger)

			require.NoError(t, err)
			ids := make([]int, 0, len(got))
			for _, c := range got {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Contains(t, logs.String(), "skipping malformed feed record")
		})
	}
}

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	src := NewSource(srv.URL, time.Second)
	body, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

func TestHTTPSource_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewSource(srv.URL, time.Second).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrFeedUnavailable)
}

func TestFileSource_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1}]`), 0o644))

	src := NewSource("file://"+path, 0)
	body, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(body), `"id":1`)

	_, err = NewSource(filepath.Join(t.TempDir(), "missing.json"), 0).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrFeedUnavailable)
}
