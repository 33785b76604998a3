package githost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v74/github"

	"linecount/internal/linecount"
)

// FetchContent downloads one file at ref from the configured source.
func (c *Client) FetchContent(ctx context.Context, ref linecount.RepoRef, entry linecount.FileEntry) ([]byte, error) {
	if c.source == SourceRawMirror {
		return c.fetchRaw(ctx, ref, entry.Path)
	}
	return c.fetchContents(ctx, ref, entry)
}

func (c *Client) fetchContents(ctx context.Context, ref linecount.RepoRef, entry linecount.FileEntry) ([]byte, error) {
	path := entry.Path
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, ref.Owner, ref.Name, path,
		&github.RepositoryContentGetOptions{Ref: ref.Ref})
	c.recordRate(resp)
	if errors.Is(err, github.ErrPathForbidden) {
		// The contents API refuses paths containing "..", the blob API does not.
		return c.fetchBlob(ctx, ref, path, entry.SHA)
	}
	if err != nil {
		return nil, classify(err, "fetch "+path)
	}
	if file == nil {
		return nil, fmt.Errorf("%s is not a file", path)
	}
	// Files over 1 MB come back without an inline body.
	if file.GetEncoding() == "none" {
		sha := entry.SHA
		if sha == "" {
			sha = file.GetSHA()
		}
		return c.fetchBlob(ctx, ref, path, sha)
	}
	body, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return []byte(body), nil
}

// fetchBlob reads a file body by blob id through the git data API.
func (c *Client) fetchBlob(ctx context.Context, ref linecount.RepoRef, path, sha string) ([]byte, error) {
	if strings.TrimSpace(sha) == "" {
		return nil, fmt.Errorf("fetch %s: blob sha unknown", path)
	}
	body, resp, err := c.gh.Git.GetBlobRaw(ctx, ref.Owner, ref.Name, sha)
	c.recordRate(resp)
	if err != nil {
		return nil, classify(err, "fetch blob "+path)
	}
	return body, nil
}

func (c *Client) fetchRaw(ctx context.Context, ref linecount.RepoRef, path string) ([]byte, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	u := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawBase,
		url.PathEscape(ref.Owner), url.PathEscape(ref.Name), url.PathEscape(ref.Ref),
		strings.Join(segments, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(err, "fetch "+path)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("raw: unexpected status %s for %s", resp.Status, path)
	}
	return io.ReadAll(resp.Body)
}
