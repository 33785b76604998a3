package linecount

import "strings"

// RepoRef identifies one snapshot of a hosted repository.
type RepoRef struct {
	Owner string
	Name  string
	Ref   string
}

// FullName returns "owner/name".
func (r RepoRef) FullName() string {
	return strings.TrimSpace(r.Owner) + "/" + strings.TrimSpace(r.Name)
}

// Key identifies the repository ref in snapshot stores.
func (r RepoRef) Key() string {
	return r.FullName() + "@" + strings.TrimSpace(r.Ref)
}

type EntryKind string

const (
	EntryBlob EntryKind = "blob"
	EntryTree EntryKind = "tree"
)

// FileEntry is one item of a recursive tree listing. SHA is the blob id
// when the listing provides one.
type FileEntry struct {
	Path string
	Kind EntryKind
	SHA  string
}

// Tree is the recursive listing of a ref. Truncated is set when the hosting
// API could not return every entry.
type Tree struct {
	Entries   []FileEntry
	Truncated bool
}
