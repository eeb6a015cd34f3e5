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
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/poiesic/ragkit/concurrency"
	"github.com/poiesic/ragkit/document"
)

const (
	// DefaultURLConcurrency bounds in-flight page fetches per loader.
	DefaultURLConcurrency = 30

	defaultFetchTimeout = 30 * time.Second
	defaultUserAgent    = "Mozilla/5.0 (compatible; ragkit/1.0; +https://github.com/poiesic/ragkit)"
)

// URLLoader fetches a list of URLs and turns each page into a document.
// Page bodies are loaded verbatim; use NewHTMLLoader to strip markup.
// Fetch failures are logged and skipped, so one dead link does not sink a
// crawl.
type URLLoader struct {
	urls          []string
	client        *http.Client
	headers       map[string]string
	userAgent     string
	limiter       *rate.Limiter
	maxConcurrent int
	builder       *document.ExcerptBuilder
	extractText   bool
	sourceType    string
	logger        *slog.Logger
}

var _ Loader = (*URLLoader)(nil)

// WebOption configures a URLLoader.
type WebOption func(*URLLoader)

// WithHTTPClient sets the HTTP client. Defaults to a 30s-timeout client.
func WithHTTPClient(client *http.Client) WebOption {
	return func(l *URLLoader) {
		l.client = client
	}
}

// WithHeaders sets extra request headers sent with every fetch.
func WithHeaders(headers map[string]string) WebOption {
	return func(l *URLLoader) {
		l.headers = headers
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) WebOption {
	return func(l *URLLoader) {
		l.userAgent = ua
	}
}

// WithRateLimit throttles fetches to n requests per second across the
// loader. Zero or negative disables throttling.
func WithRateLimit(n float64) WebOption {
	return func(l *URLLoader) {
		if n > 0 {
			l.limiter = rate.NewLimiter(rate.Limit(n), 1)
		}
	}
}

// WithURLConcurrency bounds in-flight fetches. Defaults to 30.
func WithURLConcurrency(n int) WebOption {
	return func(l *URLLoader) {
		l.maxConcurrent = n
	}
}

// WithExcerptBuilder makes the loader chunk each page into excerpt
// documents instead of returning one document per page.
func WithExcerptBuilder(builder *document.ExcerptBuilder) WebOption {
	return func(l *URLLoader) {
		l.builder = builder
	}
}

// NewURLLoader creates a loader that returns page bodies verbatim.
func NewURLLoader(urls []string, opts ...WebOption) (*URLLoader, error) {
	return newWebLoader(urls, "url", false, opts)
}

// NewHTMLLoader creates a loader that strips HTML down to its text.
func NewHTMLLoader(urls []string, opts ...WebOption) (*URLLoader, error) {
	return newWebLoader(urls, "html", true, opts)
}

func newWebLoader(urls []string, sourceType string, extractText bool, opts []WebOption) (*URLLoader, error) {
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}

	l := &URLLoader{
		urls:          urls,
		client:        &http.Client{Timeout: defaultFetchTimeout},
		userAgent:     defaultUserAgent,
		maxConcurrent: DefaultURLConcurrency,
		extractText:   extractText,
		sourceType:    sourceType,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = slog.Default().With("component", "loaders", "source", sourceType)
	return l, nil
}

// Load fetches every URL and returns the resulting documents in URL order.
// Pages that cannot be fetched are skipped with a warning.
func (l *URLLoader) Load(ctx context.Context) ([]document.Document, error) {
	type indexed struct {
		index int
		doc   document.Document
		ok    bool
	}

	tasks := make([]concurrency.Task[indexed], len(l.urls))
	for i, pageURL := range l.urls {
		tasks[i] = func(ctx context.Context) (indexed, error) {
			doc, err := l.loadURL(ctx, pageURL)
			if err != nil {
				l.logger.Warn("skipping url", "url", pageURL, "error", err)
				return indexed{index: i}, nil
			}
			l.logger.Info("loaded document", "url", pageURL)
			return indexed{index: i, doc: doc, ok: true}, nil
		}
	}

	results, err := concurrency.Run(ctx, tasks, l.maxConcurrent)
	if err != nil {
		return nil, err
	}

	byIndex := make([]*document.Document, len(l.urls))
	for _, r := range results {
		if r.ok {
			doc := r.doc
			byIndex[r.index] = &doc
		}
	}

	var docs []document.Document
	for _, doc := range byIndex {
		if doc != nil {
			docs = append(docs, *doc)
		}
	}
	return excerptDocuments(ctx, l.builder, docs)
}

func (l *URLLoader) loadURL(ctx context.Context, pageURL string) (document.Document, error) {
	body, finalURL, err := l.fetch(ctx, ensureHTTP(pageURL))
	if err != nil {
		return document.Document{}, err
	}

	// Some pages "redirect" with a meta refresh tag instead of a status
	// code; follow it once.
	if refreshURL, ok := metaRefreshTarget(body, finalURL); ok {
		body, finalURL, err = l.fetch(ctx, refreshURL)
		if err != nil {
			return document.Document{}, err
		}
	}

	text := string(body)
	if l.extractText {
		text = htmlText(strings.NewReader(text))
	}

	return document.New(text, document.WithMetadata(document.Metadata{
		Link: finalURL,
		Extra: map[string]string{
			"source":        l.sourceType,
			"document_type": "web page",
		},
	}))
}

func (l *URLLoader) fetch(ctx context.Context, pageURL string) (body []byte, finalURL string, err error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", l.userAgent)
	for k, v := range l.headers {
		req.Header.Set(k, v)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: status %d from %s", ErrFetch, resp.StatusCode, pageURL)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading %s: %v", ErrFetch, pageURL, err)
	}
	return body, resp.Request.URL.String(), nil
}

func ensureHTTP(pageURL string) string {
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		return "http://" + pageURL
	}
	return pageURL
}

var refreshURLPattern = regexp.MustCompile(`(?i)url=(\S+)`)

// metaRefreshTarget reports the absolute target of a
// <meta http-equiv="refresh"> tag, if the page carries one.
func metaRefreshTarget(body []byte, baseURL string) (string, bool) {
	root, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", false
	}

	var content string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var httpEquiv, c string
			for _, attr := range n.Attr {
				switch strings.ToLower(attr.Key) {
				case "http-equiv":
					httpEquiv = strings.ToLower(attr.Val)
				case "content":
					c = attr.Val
				}
			}
			if strings.Contains(httpEquiv, "refresh") && c != "" {
				content = c
				return true
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if walk(child) {
				return true
			}
		}
		return false
	}
	if !walk(root) {
		return "", false
	}

	m := refreshURLPattern.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", false
	}
	target, err := url.Parse(strings.Trim(m[1], `'"`))
	if err != nil {
		return "", false
	}
	return ensureHTTP(base.ResolveReference(target).String()), true
}

// htmlText extracts the visible text of an HTML document, skipping script
// and style blocks.
func htmlText(r io.Reader) string {
	root, err := html.Parse(r)
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(text)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return b.String()
}
