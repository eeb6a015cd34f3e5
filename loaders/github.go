// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package loaders

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/poiesic/ragkit/document"
)

const (
	// DefaultIssueCount is the number of issues an issue loader fetches.
	DefaultIssueCount = 50

	// DefaultIgnoreBodyAfter truncates issue bodies at the template
	// checklist most repos carry.
	DefaultIgnoreBodyAfter = "### Checklist"

	issuesPerPage = 100
)

var repoPattern = regexp.MustCompile(`^[^/\s]+/[^/\s]+$`)

type githubConfig struct {
	token   string
	client  *github.Client
	builder *document.ExcerptBuilder
}

// GitHubOption configures the GitHub loaders.
type GitHubOption func(*githubConfig)

// WithToken authenticates API requests. Falls back to the GITHUB_TOKEN
// environment variable; unauthenticated requests hit much lower rate
// limits.
func WithToken(token string) GitHubOption {
	return func(c *githubConfig) {
		c.token = token
	}
}

// WithGitHubClient injects a pre-built client, overriding WithToken.
func WithGitHubClient(client *github.Client) GitHubOption {
	return func(c *githubConfig) {
		c.client = client
	}
}

// WithGitHubExcerptBuilder makes the loader chunk each document into
// excerpts.
func WithGitHubExcerptBuilder(builder *document.ExcerptBuilder) GitHubOption {
	return func(c *githubConfig) {
		c.builder = builder
	}
}

func (c *githubConfig) githubClient(ctx context.Context) *github.Client {
	if c.client != nil {
		return c.client
	}
	token := c.token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

func splitRepo(repo string) (owner, name string, err error) {
	if !repoPattern.MatchString(repo) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepo, repo)
	}
	parts := strings.SplitN(repo, "/", 2)
	return parts[0], parts[1], nil
}

// GitHubIssueLoader loads recent issues from a repository, optionally with
// their comment threads. Mind the GitHub API rate limit on large pulls.
type GitHubIssueLoader struct {
	owner           string
	repo            string
	issueCount      int
	includeComments bool
	ignoreBodyAfter string
	ignoreUsers     map[string]bool
	cfg             githubConfig
	logger          *slog.Logger
}

var _ Loader = (*GitHubIssueLoader)(nil)

// IssueOption configures a GitHubIssueLoader beyond the shared options.
type IssueOption func(*GitHubIssueLoader)

// WithIssueCount sets how many issues to load. Defaults to 50.
func WithIssueCount(n int) IssueOption {
	return func(l *GitHubIssueLoader) {
		l.issueCount = n
	}
}

// WithComments includes each issue's comment thread in its document.
func WithComments() IssueOption {
	return func(l *GitHubIssueLoader) {
		l.includeComments = true
	}
}

// WithIgnoreBodyAfter truncates issue bodies after the given marker.
// An empty marker disables truncation.
func WithIgnoreBodyAfter(marker string) IssueOption {
	return func(l *GitHubIssueLoader) {
		l.ignoreBodyAfter = marker
	}
}

// WithIgnoreUsers drops comments from the given logins, e.g. bots.
func WithIgnoreUsers(logins ...string) IssueOption {
	return func(l *GitHubIssueLoader) {
		for _, login := range logins {
			l.ignoreUsers[login] = true
		}
	}
}

// NewGitHubIssueLoader creates a loader for issues of "owner/repo".
func NewGitHubIssueLoader(repo string, githubOpts []GitHubOption, opts ...IssueOption) (*GitHubIssueLoader, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	l := &GitHubIssueLoader{
		owner:           owner,
		repo:            name,
		issueCount:      DefaultIssueCount,
		ignoreBodyAfter: DefaultIgnoreBodyAfter,
		ignoreUsers:     make(map[string]bool),
		logger:          slog.Default().With("component", "loaders", "source", "github issue"),
	}
	for _, opt := range githubOpts {
		opt(&l.cfg)
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load fetches issues newest-first and returns one document per issue.
func (l *GitHubIssueLoader) Load(ctx context.Context) ([]document.Document, error) {
	client := l.cfg.githubClient(ctx)

	issues, err := l.listIssues(ctx, client)
	if err != nil {
		return nil, err
	}

	var docs []document.Document
	for _, issue := range issues {
		l.logger.Debug("found issue", "title", issue.GetTitle())

		text, err := l.issueText(ctx, client, issue)
		if err != nil {
			return nil, err
		}

		labels := make([]string, 0, len(issue.Labels))
		for _, label := range issue.Labels {
			labels = append(labels, label.GetName())
		}

		doc, err := document.New(text, document.WithMetadata(document.Metadata{
			Title: issue.GetTitle(),
			Link:  issue.GetHTMLURL(),
			Extra: map[string]string{
				"source":     "github issue",
				"labels":     strings.Join(labels, ", "),
				"created_at": issue.GetCreatedAt().Format(time.RFC3339),
			},
		}))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return excerptDocuments(ctx, l.cfg.builder, docs)
}

func (l *GitHubIssueLoader) listIssues(ctx context.Context, client *github.Client) ([]*github.Issue, error) {
	var issues []*github.Issue
	opts := &github.IssueListByRepoOptions{
		ListOptions: github.ListOptions{PerPage: issuesPerPage},
	}

	for len(issues) < l.issueCount {
		page, resp, err := client.Issues.ListByRepo(ctx, l.owner, l.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing issues for %s/%s: %w", l.owner, l.repo, err)
		}
		for _, issue := range page {
			// The issues API also returns pull requests.
			if issue.IsPullRequest() {
				continue
			}
			issues = append(issues, issue)
			if len(issues) == l.issueCount {
				break
			}
		}
		if resp.NextPage == 0 || len(issues) >= l.issueCount {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}
	return issues, nil
}

func (l *GitHubIssueLoader) issueText(ctx context.Context, client *github.Client, issue *github.Issue) (string, error) {
	body := rmTextAfter(rmHTMLComments(issue.GetBody()), l.ignoreBodyAfter)

	var b strings.Builder
	fmt.Fprintf(&b, "\n\n##**%s:**\n%s\n\n", issue.GetTitle(), body)

	if !l.includeComments {
		return b.String(), nil
	}

	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: issuesPerPage},
	}
	for {
		comments, resp, err := client.Issues.ListComments(ctx, l.owner, l.repo, issue.GetNumber(), opts)
		if err != nil {
			return "", fmt.Errorf("listing comments for issue %d: %w", issue.GetNumber(), err)
		}
		for _, comment := range comments {
			if l.ignoreUsers[comment.GetUser().GetLogin()] {
				continue
			}
			fmt.Fprintf(&b, "**[%s]**: %s\n\n", comment.GetUser().GetLogin(), comment.GetBody())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return b.String(), nil
}

// GitHubRepoLoader loads files from a repository checkout that match glob
// patterns. The repository is cloned shallowly into a temp directory; the
// patterns match the slash-separated path relative to the repo root.
type GitHubRepoLoader struct {
	owner        string
	repo         string
	includeGlobs []string
	excludeGlobs []string
	cfg          githubConfig
	logger       *slog.Logger
}

var _ Loader = (*GitHubRepoLoader)(nil)

// RepoOption configures a GitHubRepoLoader beyond the shared options.
type RepoOption func(*GitHubRepoLoader)

// WithIncludeGlobs keeps only files matching at least one pattern.
func WithIncludeGlobs(globs ...string) RepoOption {
	return func(l *GitHubRepoLoader) {
		l.includeGlobs = append(l.includeGlobs, globs...)
	}
}

// WithExcludeGlobs drops files matching any pattern.
func WithExcludeGlobs(globs ...string) RepoOption {
	return func(l *GitHubRepoLoader) {
		l.excludeGlobs = append(l.excludeGlobs, globs...)
	}
}

// NewGitHubRepoLoader creates a loader over the files of "owner/repo".
func NewGitHubRepoLoader(repo string, githubOpts []GitHubOption, opts ...RepoOption) (*GitHubRepoLoader, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	l := &GitHubRepoLoader{
		owner:  owner,
		repo:   name,
		logger: slog.Default().With("component", "loaders", "source", "github source code"),
	}
	for _, opt := range githubOpts {
		opt(&l.cfg)
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load clones the repository and returns one document per matching text
// file. Binary files are skipped.
func (l *GitHubRepoLoader) Load(ctx context.Context) ([]document.Document, error) {
	cloneURL := fmt.Sprintf("https://github.com/%s/%s.git", l.owner, l.repo)
	repoURL := fmt.Sprintf("https://github.com/%s/%s", l.owner, l.repo)

	tmpDir, err := os.MkdirTemp("", "ragkit-repo-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", cloneURL, tmpDir)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: cloning %s: %v: %s", ErrFetch, cloneURL, err, out)
	}

	var docs []document.Document
	err = filepath.WalkDir(tmpDir, func(filePath string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(tmpDir, filePath)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchGlobs(rel, l.includeGlobs, l.excludeGlobs) {
			return nil
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}
		if !utf8.Valid(data) {
			l.logger.Debug("skipping binary file", "path", rel)
			return nil
		}
		l.logger.Info("loading file", "path", rel)

		doc, err := document.New(string(data), document.WithMetadata(document.Metadata{
			Title: path.Base(rel),
			Link:  repoURL + "/tree/main/" + rel,
			Extra: map[string]string{
				"source":   "github source code",
				"filename": path.Base(rel),
			},
		}))
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return excerptDocuments(ctx, l.cfg.builder, docs)
}

// matchGlobs matches a slash-separated relative path against include and
// exclude patterns. Patterns match the full relative path or its base name.
func matchGlobs(rel string, include, exclude []string) bool {
	matches := func(pattern string) bool {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		ok, _ := path.Match(pattern, path.Base(rel))
		return ok
	}

	for _, pattern := range exclude {
		if matches(pattern) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, pattern := range include {
		if matches(pattern) {
			return true
		}
	}
	return false
}
