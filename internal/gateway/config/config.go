package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"linecount/internal/githost"
	"linecount/internal/linecount"
)

type Config struct {
	Port       string
	Env        string
	CORSOrigin string

	GitHub   GitHubConfig
	Count    CountConfig
	Snapshot SnapshotConfig
}

type GitHubConfig struct {
	Token      string
	Owner      string
	Repo       string
	Branch     string
	APIBaseURL string
	RawBaseURL string
	Source     githost.ContentSource
}

type CountConfig struct {
	ExcludeMode   linecount.ExcludeMode
	MaxFiles      int
	TreeTimeout   time.Duration
	FileTimeout   time.Duration
	CountComments bool
}

type SnapshotConfig struct {
	Freshness   time.Duration
	Dir         string
	DatabaseURL string
	S3          S3Config
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CanUseS3 reports whether every field needed to reach a bucket is set.
func (c S3Config) CanUseS3() bool {
	return strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

// Load reads .env (if present), process flags and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadArgs(os.Args[1:])
}

// LoadArgs builds the configuration from args and the current environment.
func LoadArgs(args []string) (*Config, error) {
	fs := flag.NewFlagSet("linecount", flag.ContinueOnError)
	port := fs.String("port", ":5000", "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPort := strings.TrimSpace(os.Getenv("PORT")); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	gh, err := loadGitHubConfig()
	if err != nil {
		return nil, err
	}
	count, err := loadCountConfig()
	if err != nil {
		return nil, err
	}
	snap, err := loadSnapshotConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:       *port,
		Env:        env,
		CORSOrigin: strings.TrimSpace(os.Getenv("CORS_ORIGIN")),
		GitHub:     gh,
		Count:      count,
		Snapshot:   snap,
	}, nil
}

// LineCount derives the immutable aggregation input.
func (c *Config) LineCount() linecount.Config {
	return linecount.Config{
		Repo: linecount.RepoRef{
			Owner: c.GitHub.Owner,
			Name:  c.GitHub.Repo,
			Ref:   c.GitHub.Branch,
		},
		Token:         c.GitHub.Token,
		ExcludeMode:   c.Count.ExcludeMode,
		MaxFiles:      c.Count.MaxFiles,
		TreeTimeout:   c.Count.TreeTimeout,
		FileTimeout:   c.Count.FileTimeout,
		CountComments: c.Count.CountComments,
	}
}

func loadGitHubConfig() (GitHubConfig, error) {
	source, err := githost.ParseContentSource(os.Getenv("CONTENT_SOURCE"))
	if err != nil {
		return GitHubConfig{}, err
	}
	return GitHubConfig{
		Token:      strings.TrimSpace(os.Getenv("GITHUB_TOKEN")),
		Owner:      firstNonEmpty(strings.TrimSpace(os.Getenv("REPO_OWNER")), "Rafsan1711"),
		Repo:       firstNonEmpty(strings.TrimSpace(os.Getenv("REPO_NAME")), "periodic-table-3d"),
		Branch:     firstNonEmpty(strings.TrimSpace(os.Getenv("BRANCH")), "master"),
		APIBaseURL: strings.TrimSpace(os.Getenv("GITHUB_API_URL")),
		RawBaseURL: strings.TrimSpace(os.Getenv("GITHUB_RAW_URL")),
		Source:     source,
	}, nil
}

func loadCountConfig() (CountConfig, error) {
	mode, err := linecount.ParseExcludeMode(os.Getenv("EXCLUDE_MODE"))
	if err != nil {
		return CountConfig{}, err
	}
	maxFiles, err := envInt("MAX_FILES", 0)
	if err != nil {
		return CountConfig{}, err
	}
	if maxFiles < 0 {
		return CountConfig{}, fmt.Errorf("MAX_FILES must not be negative")
	}
	treeTimeout, err := envDuration("TREE_TIMEOUT", linecount.DefaultTreeTimeout)
	if err != nil {
		return CountConfig{}, err
	}
	fileTimeout, err := envDuration("FILE_TIMEOUT", linecount.DefaultFileTimeout)
	if err != nil {
		return CountConfig{}, err
	}
	return CountConfig{
		ExcludeMode:   mode,
		MaxFiles:      maxFiles,
		TreeTimeout:   treeTimeout,
		FileTimeout:   fileTimeout,
		CountComments: envBool("COUNT_COMMENTS", false),
	}, nil
}

func loadSnapshotConfig() (SnapshotConfig, error) {
	freshness, err := envDuration("SNAPSHOT_FRESHNESS", time.Hour)
	if err != nil {
		return SnapshotConfig{}, err
	}
	return SnapshotConfig{
		Freshness:   freshness,
		Dir:         strings.TrimSpace(os.Getenv("SNAPSHOT_DIR")),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		S3: S3Config{
			Endpoint:  strings.TrimSpace(os.Getenv("SNAPSHOT_S3_ENDPOINT")),
			Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_REGION")), "us-east-1"),
			AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
			SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
			Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_BUCKET")), "linecount-snapshots"),
			UseSSL:    envBool("SNAPSHOT_S3_USE_SSL", true),
		},
	}, nil
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// envDuration accepts Go durations ("15s") or a bare number of seconds.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
