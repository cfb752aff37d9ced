package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/xhad/screener/internal/models"
	"golang.org/x/time/rate"
)

type FetcherConfig struct {
	RateLimit float64 // requests per second
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	Logger    *zerolog.Logger
}

// Document is a fetched remote resource.
type Document struct {
	URL         string
	ContentType string
	Body        []byte
	Metadata    map[string]interface{}
}

type Fetcher struct {
	config  FetcherConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func NewWithConfig(config FetcherConfig) *Fetcher {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if config.MaxBytes == 0 {
		config.MaxBytes = 20 << 20
	}
	if config.UserAgent == "" {
		config.UserAgent = "screener/1.0"
	}
	l := zerolog.Nop()
	if config.Logger != nil {
		l = config.Logger.With().Str("component", "fetcher").Logger()
	}

	return &Fetcher{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		logger:  l,
	}
}

func New() *Fetcher {
	return NewWithConfig(FetcherConfig{})
}

// IsURL reports whether ref is an absolute http(s) URL.
func IsURL(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch performs a rate limited GET and returns the body, refusing bodies
// larger than MaxBytes.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	if !IsURL(rawURL) {
		return nil, fmt.Errorf("not an http(s) URL: %q", rawURL)
	}

	// Apply rate limiting
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", rawURL, f.config.MaxBytes)
	}

	f.logger.Debug().
		Str("url", rawURL).
		Int("bytes", len(body)).
		Dur("took", time.Since(start)).
		Msg("fetched")

	return &Document{
		URL:         rawURL,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Metadata: map[string]interface{}{
			"time":         time.Now(),
			"lastModified": resp.Header.Get("Last-Modified"),
		},
	}, nil
}

// JobPosting fetches a job advert and returns its readable text.
func (f *Fetcher) JobPosting(ctx context.Context, rawURL string) (string, error) {
	doc, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	if !strings.Contains(strings.ToLower(doc.ContentType), "html") {
		return strings.TrimSpace(string(doc.Body)), nil
	}

	html, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return "", fmt.Errorf("failed to parse job posting: %w", err)
	}

	text := extractMainContent(html)
	if text == "" {
		return "", fmt.Errorf("no text found in job posting %s", rawURL)
	}
	return text, nil
}

// Resume downloads a resume document. The filename comes from the URL path,
// or from the content type when the path has no extension.
func (f *Fetcher) Resume(ctx context.Context, rawURL string) (models.Resume, error) {
	doc, err := f.Fetch(ctx, rawURL)
	if err != nil {
		// Named from the URL alone so the caller can still report it.
		return models.Resume{Filename: filenameFor(rawURL, ""), Source: rawURL}, err
	}

	return models.Resume{
		Filename: filenameFor(rawURL, doc.ContentType),
		Source:   rawURL,
		Data:     doc.Body,
	}, nil
}

func filenameFor(rawURL, contentType string) string {
	name := "resume"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "/" && base != "." && base != "" {
			name = base
		}
	}
	if path.Ext(name) != "" {
		return name
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "application/pdf"):
		return name + ".pdf"
	case strings.Contains(ct, "wordprocessingml"):
		return name + ".docx"
	}
	return name
}

func cleanContent(content string) string {
	// Remove extra whitespace
	content = strings.Join(strings.Fields(content), " ")

	// Remove common noise
	noisePatterns := []string{
		"Cookie Policy",
		"Accept Cookies",
		"Privacy Policy",
		"Terms of Service",
		"Apply Now",
	}

	for _, pattern := range noisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}

	return strings.Join(strings.Fields(content), " ")
}

func extractMainContent(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer").Remove()

	// Try to find main content area
	selectors := []string{
		".job-description",
		"#job-description",
		"[itemprop=description]",
		"main",
		"article",
		".content",
		"#content",
	}

	var content string
	for _, selector := range selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.First().Text()
			break
		}
	}

	// Fallback to body if no main content found
	if strings.TrimSpace(content) == "" {
		content = doc.Find("body").Text()
	}

	return cleanContent(content)
}
