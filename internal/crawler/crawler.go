// Package crawler fetches web pages and reduces them to plain text for training data.
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/textutil"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; WorkMateBot/1.0; +https://workmate.ai)"
	MaxContentChars  = 50000

	maxBodyBytes = 10 << 20
)

// Fetcher returns the raw HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Page is the text extracted from one URL.
type Page struct {
	URL   string
	Title string
	Text  string
}

// HTTPFetcher performs a single plain GET per page.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &apperr.UpstreamFetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &apperr.UpstreamFetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &apperr.UpstreamFetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &apperr.UpstreamFetchError{URL: pageURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	return string(body), nil
}

// Crawler turns URLs into Pages.
type Crawler struct {
	fetcher Fetcher
	logger  *zap.Logger
}

func New(fetcher Fetcher, logger *zap.Logger) *Crawler {
	return &Crawler{fetcher: fetcher, logger: logger}
}

// Crawl fetches pageURL once and extracts its text.
func (c *Crawler) Crawl(ctx context.Context, pageURL string) (*Page, error) {
	if err := ValidateURL(pageURL); err != nil {
		return nil, err
	}

	c.logger.Info("Crawling website", zap.String("url", pageURL))
	raw, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		c.logger.Warn("Failed to fetch website", zap.String("url", pageURL), zap.Error(err))
		return nil, err
	}

	page, err := Extract(raw, pageURL)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Crawled website",
		zap.String("url", pageURL),
		zap.Int("characters", textutil.Len(page.Text)))
	return page, nil
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(pageURL string) error {
	if strings.TrimSpace(pageURL) == "" {
		return apperr.Validation("URL is required")
	}
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return apperr.Validation("invalid URL %q", pageURL)
	}
	return nil
}

// Extract drops scripts, styles and page chrome, collapses whitespace and
// caps the text at MaxContentChars. The title falls back to pageURL.
func Extract(raw, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = pageURL
	}

	doc.Find("script, style, nav, footer, header").Remove()

	var sb strings.Builder
	collectText(doc.Selection, &sb)
	text := strings.Join(strings.Fields(sb.String()), " ")

	return &Page{
		URL:   pageURL,
		Title: title,
		Text:  textutil.Truncate(text, MaxContentChars),
	}, nil
}

// collectText writes every text node under sel separated by spaces, so
// adjacent block elements do not run together.
func collectText(sel *goquery.Selection, sb *strings.Builder) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "#text":
			sb.WriteString(s.Text())
			sb.WriteByte(' ')
		case "#comment":
		default:
			collectText(s, sb)
		}
	})
}
