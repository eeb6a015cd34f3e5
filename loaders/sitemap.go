package loaders

import (
	"context"
	"encoding/xml"
	"fmt"
	"regexp"

	"github.com/poiesic/ragkit/document"
)

// SitemapLoader discovers page URLs from XML sitemaps and loads them with
// an HTML loader. Include and exclude patterns narrow the crawl; a URL must
// match at least one include pattern (when any are set) and no exclude
// pattern.
type SitemapLoader struct {
	sitemapURLs []string
	include     []*regexp.Regexp
	exclude     []*regexp.Regexp
	webOpts     []WebOption
}

var _ Loader = (*SitemapLoader)(nil)

// SitemapOption configures a SitemapLoader.
type SitemapOption func(*SitemapLoader)

// WithInclude keeps only URLs matching at least one pattern.
func WithInclude(patterns ...*regexp.Regexp) SitemapOption {
	return func(l *SitemapLoader) {
		l.include = append(l.include, patterns...)
	}
}

// WithExclude drops URLs matching any pattern.
func WithExclude(patterns ...*regexp.Regexp) SitemapOption {
	return func(l *SitemapLoader) {
		l.exclude = append(l.exclude, patterns...)
	}
}

// WithWebOptions passes options through to the page loader, e.g. rate
// limits or an excerpt builder.
func WithWebOptions(opts ...WebOption) SitemapOption {
	return func(l *SitemapLoader) {
		l.webOpts = append(l.webOpts, opts...)
	}
}

// NewSitemapLoader creates a loader over one or more sitemap URLs.
func NewSitemapLoader(sitemapURLs []string, opts ...SitemapOption) (*SitemapLoader, error) {
	if len(sitemapURLs) == 0 {
		return nil, ErrNoURLs
	}

	l := &SitemapLoader{sitemapURLs: sitemapURLs}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load fetches every sitemap, filters the discovered URLs, and loads the
// surviving pages.
func (l *SitemapLoader) Load(ctx context.Context) ([]document.Document, error) {
	var pageURLs []string
	for _, sitemapURL := range l.sitemapURLs {
		urls, err := l.loadSitemap(ctx, sitemapURL)
		if err != nil {
			return nil, fmt.Errorf("sitemap %s: %w", sitemapURL, err)
		}
		pageURLs = append(pageURLs, urls...)
	}

	if len(pageURLs) == 0 {
		return nil, nil
	}

	pages, err := NewHTMLLoader(pageURLs, l.webOpts...)
	if err != nil {
		return nil, err
	}
	return pages.Load(ctx)
}

func (l *SitemapLoader) loadSitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	fetcher, err := NewURLLoader([]string{sitemapURL})
	if err != nil {
		return nil, err
	}

	body, _, err := fetcher.fetch(ctx, ensureHTTP(sitemapURL))
	if err != nil {
		return nil, err
	}

	urls, err := parseSitemap(body)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, u := range urls {
		if l.included(u) && !l.excluded(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (l *SitemapLoader) included(u string) bool {
	if len(l.include) == 0 {
		return true
	}
	for _, p := range l.include {
		if p.MatchString(u) {
			return true
		}
	}
	return false
}

func (l *SitemapLoader) excluded(u string) bool {
	for _, p := range l.exclude {
		if p.MatchString(u) {
			return true
		}
	}
	return false
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// parseSitemap extracts every <loc> entry from a sitemap or sitemap index.
func parseSitemap(body []byte) ([]string, error) {
	var doc struct {
		URLs     []sitemapLoc `xml:"url"`
		Sitemaps []sitemapLoc `xml:"sitemap"`
	}
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing sitemap: %w", err)
	}

	urls := make([]string, 0, len(doc.URLs)+len(doc.Sitemaps))
	for _, u := range doc.URLs {
		urls = append(urls, u.Loc)
	}
	for _, s := range doc.Sitemaps {
		urls = append(urls, s.Loc)
	}
	return urls, nil
}
