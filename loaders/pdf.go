package loaders

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/ledongthuc/pdf"

	"github.com/poiesic/ragkit/document"
)

// PDFLoader loads a PDF from a local path or a URL, one document per page.
// Pages whose text cannot be extracted are skipped with a warning; scanned
// PDFs without a text layer yield nothing.
type PDFLoader struct {
	source  string
	client  *http.Client
	builder *document.ExcerptBuilder
	logger  *slog.Logger
}

var _ Loader = (*PDFLoader)(nil)

// PDFOption configures a PDFLoader.
type PDFOption func(*PDFLoader)

// WithPDFHTTPClient sets the client used to download remote PDFs.
func WithPDFHTTPClient(client *http.Client) PDFOption {
	return func(l *PDFLoader) {
		l.client = client
	}
}

// WithPDFExcerptBuilder makes the loader chunk each page into excerpts.
func WithPDFExcerptBuilder(builder *document.ExcerptBuilder) PDFOption {
	return func(l *PDFLoader) {
		l.builder = builder
	}
}

// NewPDFLoader creates a loader for a PDF at a local path or URL.
func NewPDFLoader(source string, opts ...PDFOption) *PDFLoader {
	l := &PDFLoader{
		source: source,
		client: &http.Client{Timeout: defaultFetchTimeout},
		logger: slog.Default().With("component", "loaders", "source", "pdf"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load extracts the text of every page, in page order.
func (l *PDFLoader) Load(ctx context.Context) ([]document.Document, error) {
	filePath := l.source
	if isURL(l.source) {
		downloaded, cleanup, err := l.download(ctx)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		filePath = downloaded
	}

	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", l.source, err)
	}
	defer f.Close()

	var docs []document.Document
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			l.logger.Warn("skipping page", "page", pageNum, "error", err)
			continue
		}
		if text == "" {
			continue
		}

		doc, err := document.New(text, document.WithMetadata(document.Metadata{
			Link: l.source,
			Extra: map[string]string{
				"source": "pdf",
				"page":   strconv.Itoa(pageNum),
			},
		}))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return excerptDocuments(ctx, l.builder, docs)
}

func (l *PDFLoader) download(ctx context.Context) (path string, cleanup func(), err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return "", nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("%w: status %d from %s", ErrFetch, resp.StatusCode, l.source)
	}

	tmp, err := os.CreateTemp("", "ragkit-*.pdf")
	if err != nil {
		return "", nil, err
	}
	cleanup = func() {
		os.Remove(tmp.Name())
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("downloading %s: %w", l.source, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return tmp.Name(), cleanup, nil
}

func isURL(source string) bool {
	parsed, err := url.Parse(source)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}
