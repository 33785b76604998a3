package linecount

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

const (
	DefaultTreeTimeout = 30 * time.Second
	DefaultFileTimeout = 10 * time.Second
)

// Config is the immutable input of an aggregation run. It is built once at
// start-up and shared by the aggregator and the hosting client.
type Config struct {
	Repo          RepoRef
	Token         string
	ExcludeMode   ExcludeMode
	MaxFiles      int // 0 means no cap
	TreeTimeout   time.Duration
	FileTimeout   time.Duration
	CountComments bool
}

// TokenConfigured reports whether a hosting API credential is present.
func (c Config) TokenConfigured() bool {
	return strings.TrimSpace(c.Token) != ""
}

// TreeFetcher retrieves the recursive listing of a ref.
type TreeFetcher interface {
	FetchTree(ctx context.Context, ref RepoRef) (Tree, error)
}

// ContentFetcher downloads the raw bytes of one listed file at a ref.
type ContentFetcher interface {
	FetchContent(ctx context.Context, ref RepoRef, entry FileEntry) ([]byte, error)
}

// Aggregator runs the fetch, filter, count pipeline for one configured ref.
type Aggregator struct {
	cfg     Config
	tree    TreeFetcher
	content ContentFetcher
	filter  *Filter
	log     *log.Logger
	now     func() time.Time
}

type Option func(*Aggregator)

// WithLogger sets the progress logger. Nil keeps log.Default().
func WithLogger(l *log.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithClock overrides the capture time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAggregator(cfg Config, tree TreeFetcher, content ContentFetcher, opts ...Option) *Aggregator {
	if cfg.TreeTimeout <= 0 {
		cfg.TreeTimeout = DefaultTreeTimeout
	}
	if cfg.FileTimeout <= 0 {
		cfg.FileTimeout = DefaultFileTimeout
	}
	if cfg.MaxFiles < 0 {
		cfg.MaxFiles = 0
	}
	a := &Aggregator{
		cfg:     cfg,
		tree:    tree,
		content: content,
		filter:  NewFilter(cfg.ExcludeMode, nil),
		log:     log.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) Config() Config { return a.cfg }

// Run performs one aggregation pass. Downloads are sequential; a failed file
// is counted in FilesFailed and never aborts the pass. Any other failure
// aborts and is returned as *Error.
func (a *Aggregator) Run(ctx context.Context) (*Report, error) {
	if !a.cfg.TokenConfigured() {
		a.log.Printf("line count: %s", ErrTokenRequired.Message)
		return nil, ErrTokenRequired
	}
	ref := a.cfg.Repo
	a.log.Printf("line count started: repository=%s branch=%s exclude=%s", ref.FullName(), ref.Ref, a.filter.Mode())

	treeCtx, cancel := context.WithTimeout(ctx, a.cfg.TreeTimeout)
	tree, err := a.tree.FetchTree(treeCtx, ref)
	cancel()
	if err != nil {
		a.log.Printf("line count: fetch tree failed: %v", err)
		return nil, classify(err)
	}
	a.log.Printf("line count: %d items in tree (truncated=%v)", len(tree.Entries), tree.Truncated)

	counts := make(map[Category]int, len(Categories))
	var comments map[Category]int
	if a.cfg.CountComments {
		comments = make(map[Category]int, len(Categories))
	}
	stats := Statistics{TreeTruncated: tree.Truncated}
	attempted := 0

	for _, entry := range tree.Entries {
		if entry.Kind != EntryBlob {
			continue
		}
		decision, category := a.filter.Classify(entry.Path)
		switch decision {
		case Excluded:
			stats.FilesExcluded++
			continue
		case Skipped:
			stats.FilesSkipped++
			continue
		}
		if a.cfg.MaxFiles > 0 && attempted >= a.cfg.MaxFiles {
			stats.FilesLimited++
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, classify(err)
		}
		attempted++

		text, err := a.download(ctx, entry)
		if err != nil {
			stats.FilesFailed++
			a.log.Printf("line count: skip %s: %v", entry.Path, err)
			continue
		}
		lines := CountLines(text)
		counts[category] += lines
		if comments != nil {
			comments[category] += CommentLines(category, text)
		}
		stats.FilesProcessed++
		a.log.Printf("line count: [%d] %s: %d lines (%s)", stats.FilesProcessed, entry.Path, lines, category)
	}

	report := Assemble(counts, stats, ref, a.now())
	if comments != nil {
		report.Diagnostics = &Diagnostics{CommentLines: comments}
	}
	a.log.Printf("line count finished: processed=%d excluded=%d skipped=%d failed=%d limited=%d total=%d",
		stats.FilesProcessed, stats.FilesExcluded, stats.FilesSkipped, stats.FilesFailed, stats.FilesLimited, report.Total)
	return report, nil
}

func (a *Aggregator) download(ctx context.Context, entry FileEntry) (string, error) {
	fileCtx, cancel := context.WithTimeout(ctx, a.cfg.FileTimeout)
	defer cancel()
	raw, err := a.content.FetchContent(fileCtx, a.cfg.Repo, entry)
	if err != nil {
		return "", Errorf(KindPerFile, err, "download %s", entry.Path)
	}
	return Decode(raw), nil
}

func classify(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Errorf(KindTimeout, err, "Request timed out")
	}
	return Errorf(KindInternal, err, "Internal error")
}
