package githost

import (
	"context"

	"github.com/google/go-github/v74/github"

	"linecount/internal/linecount"
)

type Readme struct {
	Name    string
	Content string
}

// FetchReadme returns the decoded README of ref. A missing README yields a
// KindNotFound error.
func (c *Client) FetchReadme(ctx context.Context, ref linecount.RepoRef) (Readme, error) {
	file, resp, err := c.gh.Repositories.GetReadme(ctx, ref.Owner, ref.Name,
		&github.RepositoryContentGetOptions{Ref: ref.Ref})
	c.recordRate(resp)
	if err != nil {
		return Readme{}, classify(err, "fetch readme")
	}
	if file == nil {
		return Readme{}, linecount.Errorf(linecount.KindNotFound, nil, "README not found")
	}
	body, err := file.GetContent()
	if err != nil {
		return Readme{}, linecount.Errorf(linecount.KindMalformedResponse, err, "Invalid response")
	}
	return Readme{Name: file.GetName(), Content: linecount.Decode([]byte(body))}, nil
}
