package githost

import (
	"context"

	"linecount/internal/linecount"
)

// FetchTree lists every entry of ref recursively in a single request.
func (c *Client) FetchTree(ctx context.Context, ref linecount.RepoRef) (linecount.Tree, error) {
	tree, resp, err := c.gh.Git.GetTree(ctx, ref.Owner, ref.Name, ref.Ref, true)
	c.recordRate(resp)
	if err != nil {
		return linecount.Tree{}, classify(err, "fetch tree")
	}
	if tree == nil || tree.Entries == nil {
		return linecount.Tree{}, linecount.Errorf(linecount.KindMalformedResponse, nil, "Invalid response")
	}

	out := linecount.Tree{
		Entries:   make([]linecount.FileEntry, 0, len(tree.Entries)),
		Truncated: tree.GetTruncated(),
	}
	for _, e := range tree.Entries {
		if e == nil {
			continue
		}
		out.Entries = append(out.Entries, linecount.FileEntry{
			Path: e.GetPath(),
			Kind: linecount.EntryKind(e.GetType()),
			SHA:  e.GetSHA(),
		})
	}
	return out, nil
}
