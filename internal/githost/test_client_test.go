package githost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linecount/internal/linecount"
)

var demoRef = linecount.RepoRef{Owner: "octo", Name: "demo", Ref: "master"}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func blob(path, sha string) linecount.FileEntry {
	return linecount.FileEntry{Path: path, Kind: linecount.EntryBlob, SHA: sha}
}

func newTestClient(t *testing.T, source ContentSource, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c, err := New("token-123", Options{
		BaseURL:    srv.URL,
		RawBaseURL: srv.URL + "/raw",
		Source:     source,
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestFetchTree(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/git/trees/master", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "4321")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		writeJSON(w, http.StatusOK, map[string]any{
			"sha": "abc",
			"tree": []map[string]any{
				{"path": "src", "type": "tree", "sha": "t1"},
				{"path": "src/a.js", "type": "blob", "sha": "b1"},
			},
			"truncated": true,
		})
	})
	c := newTestClient(t, SourceContentsAPI, mux)

	tree, err := c.FetchTree(context.Background(), demoRef)
	require.NoError(t, err)
	assert.True(t, tree.Truncated)
	assert.Equal(t, []linecount.FileEntry{
		{Path: "src", Kind: linecount.EntryTree, SHA: "t1"},
		{Path: "src/a.js", Kind: linecount.EntryBlob, SHA: "b1"},
	}, tree.Entries)

	rate, ok := c.LastRate()
	require.True(t, ok)
	assert.Equal(t, 5000, rate.Limit)
	assert.Equal(t, 4321, rate.Remaining)
}

func TestFetchTree_ErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   any
		want   linecount.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, map[string]string{"message": "Bad credentials"}, linecount.KindUnauthorized},
		{"not found", http.StatusNotFound, map[string]string{"message": "Not Found"}, linecount.KindNotFound},
		{"empty repository", http.StatusConflict, map[string]string{"message": "Git Repository is empty."}, linecount.KindNotFound},
		{"missing tree key", http.StatusOK, map[string]string{"sha": "abc"}, linecount.KindMalformedResponse},
		{"server error", http.StatusInternalServerError, map[string]string{"message": "oops"}, linecount.KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/repos/octo/demo/git/trees/master", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tc.status, tc.body)
			})
			c := newTestClient(t, SourceContentsAPI, mux)

			_, err := c.FetchTree(context.Background(), demoRef)
			require.Error(t, err)
			assert.Equal(t, tc.want, linecount.KindOf(err))
		})
	}
}

func TestFetchTree_Timeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/git/trees/master", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	c := newTestClient(t, SourceContentsAPI, mux)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.FetchTree(ctx, demoRef)
	require.Error(t, err)
	assert.Equal(t, linecount.KindTimeout, linecount.KindOf(err))
}

func TestFetchContent_FromContentsAPI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/contents/src/a.js", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "master", r.URL.Query().Get("ref"))
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"name":     "a.js",
			"path":     "src/a.js",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("a\nb\nc")),
		})
	})
	c := newTestClient(t, SourceContentsAPI, mux)

	body, err := c.FetchContent(context.Background(), demoRef, blob("src/a.js", ""))
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc", string(body))
}

func TestFetchContent_LargeFileFallsBackToBlob(t *testing.T) {
	var blobHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/contents/data/big.js", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"name":     "big.js",
			"path":     "data/big.js",
			"sha":      "big1",
			"size":     2 << 20,
			"encoding": "none",
			"content":  "",
		})
	})
	mux.HandleFunc("/repos/octo/demo/git/blobs/big1", func(w http.ResponseWriter, _ *http.Request) {
		blobHits.Add(1)
		_, _ = w.Write([]byte("x\ny\nz\n"))
	})
	c := newTestClient(t, SourceContentsAPI, mux)

	body, err := c.FetchContent(context.Background(), demoRef, blob("data/big.js", ""))
	require.NoError(t, err)
	assert.Equal(t, "x\ny\nz\n", string(body))
	assert.EqualValues(t, 1, blobHits.Load())
}

func TestFetchContent_DotDotPathUsesTreeSHA(t *testing.T) {
	var contentsHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/contents/", func(w http.ResponseWriter, _ *http.Request) {
		contentsHits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/repos/octo/demo/git/blobs/v12", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("a\nb"))
	})
	c := newTestClient(t, SourceContentsAPI, mux)

	body, err := c.FetchContent(context.Background(), demoRef, blob("src/v1..2.js", "v12"))
	require.NoError(t, err)
	assert.Equal(t, "a\nb", string(body))
	assert.Zero(t, contentsHits.Load())

	_, err = c.FetchContent(context.Background(), demoRef, blob("src/v1..2.js", ""))
	assert.Error(t, err)
}

func TestAggregator_CountsAllFetchPaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/git/trees/master", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"sha": "root",
			"tree": []map[string]any{
				{"path": "src/a.js", "type": "blob", "sha": "a1"},
				{"path": "data/big.js", "type": "blob", "sha": "big1"},
				{"path": "src/v1..2.js", "type": "blob", "sha": "v12"},
				{"path": "src/corrupt.js", "type": "blob", "sha": "c1"},
			},
		})
	})
	mux.HandleFunc("/repos/octo/demo/contents/src/a.js", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("1\n2")),
		})
	})
	mux.HandleFunc("/repos/octo/demo/contents/data/big.js", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"type": "file", "encoding": "none", "content": ""})
	})
	mux.HandleFunc("/repos/octo/demo/contents/src/corrupt.js", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  "%%% not base64 %%%",
		})
	})
	mux.HandleFunc("/repos/octo/demo/git/blobs/big1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("1\n2\n3"))
	})
	mux.HandleFunc("/repos/octo/demo/git/blobs/v12", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("1"))
	})
	c := newTestClient(t, SourceContentsAPI, mux)

	cfg := linecount.Config{Repo: demoRef, Token: "token-123"}
	agg := linecount.NewAggregator(cfg, c, c, linecount.WithLogger(log.New(io.Discard, "", 0)))
	report, err := agg.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, report.Count(linecount.JavaScript))
	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 3, report.Statistics.FilesProcessed)
	assert.Equal(t, 1, report.Statistics.FilesFailed)
}

func TestFetchContent_FromRawMirror(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/raw/octo/demo/master/docs/guide.md", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("# title\n"))
	})
	c := newTestClient(t, SourceRawMirror, mux)

	body, err := c.FetchContent(context.Background(), demoRef, blob("docs/guide.md", ""))
	require.NoError(t, err)
	assert.Equal(t, "# title\n", string(body))
	assert.EqualValues(t, 1, hits.Load())

	_, err = c.FetchContent(context.Background(), demoRef, blob("missing.md", ""))
	assert.Error(t, err)
}

func TestFetchReadme(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/readme", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "master", r.URL.Query().Get("ref"))
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"name":     "README.md",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("# Demo")),
		})
	})
	c := newTestClient(t, SourceContentsAPI, mux)

	readme, err := c.FetchReadme(context.Background(), demoRef)
	require.NoError(t, err)
	assert.Equal(t, "README.md", readme.Name)
	assert.Equal(t, "# Demo", readme.Content)
}

func TestFetchReadme_Missing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/readme", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	})
	c := newTestClient(t, SourceContentsAPI, mux)

	_, err := c.FetchReadme(context.Background(), demoRef)
	require.Error(t, err)
	assert.Equal(t, linecount.KindNotFound, linecount.KindOf(err))
}

func TestParseContentSource(t *testing.T) {
	s, err := ParseContentSource("")
	require.NoError(t, err)
	assert.Equal(t, SourceContentsAPI, s)

	s, err = ParseContentSource("RAW")
	require.NoError(t, err)
	assert.Equal(t, SourceRawMirror, s)

	_, err = ParseContentSource("ftp")
	assert.Error(t, err)
}
