package fetcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

type FetcherConfig struct {
	IndexURL       string
	DestDir        string
	MaxDepth       int
	RateLimit      float64 // requests per second
	IgnorePatterns []string
	Timeout        time.Duration
	OnProgress     func(url string)
}

// Fetcher crawls a report index page and downloads every linked PDF into
// the pdf directory, so a run can start from a publisher's disclosure page
// instead of a hand-filled folder.
type Fetcher struct {
	config   FetcherConfig
	client   *http.Client
	visited  map[string]bool
	limiter  *rate.Limiter
	baseHost string
}

func NewWithConfig(config FetcherConfig) (*Fetcher, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 2
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if config.DestDir == "" {
		config.DestDir = filepath.Join("data", "pdfs")
	}

	parsedURL, err := url.Parse(config.IndexURL)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		visited:  make(map[string]bool),
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		baseHost: parsedURL.Host,
	}, nil
}

// Fetch crawls the index URL and returns the paths of the PDFs it
// downloaded. Files already present in the destination are skipped.
func (f *Fetcher) Fetch(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(f.config.DestDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", f.config.DestDir, err)
	}

	var downloaded []string
	err := f.crawl(ctx, f.config.IndexURL, 0, &downloaded)
	return downloaded, err
}

func (f *Fetcher) crawl(ctx context.Context, pageURL string, depth int, downloaded *[]string) error {
	if depth > f.config.MaxDepth || f.visited[pageURL] {
		return nil
	}

	if !f.shouldProcessURL(pageURL) {
		return nil
	}

	f.visited[pageURL] = true
	if f.config.OnProgress != nil {
		f.config.OnProgress(pageURL)
	}

	// Apply rate limiting
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := f.client.Get(pageURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return err
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		links = append(links, base.ResolveReference(ref).String())
	})

	for _, link := range links {
		if isPDF(link) {
			p, err := f.download(ctx, link)
			if err != nil {
				log.Printf("fetcher: download %s: %v", link, err)
			} else if p != "" {
				*downloaded = append(*downloaded, p)
			}
			continue
		}
		_ = f.crawl(ctx, link, depth+1, downloaded)
	}

	return nil
}

func (f *Fetcher) shouldProcessURL(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	// Stay on the index page's host
	if parsedURL.Host != f.baseHost {
		return false
	}

	for _, pattern := range f.config.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return false
		}
	}

	return true
}

func isPDF(urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(parsed.Path), ".pdf")
}

// download fetches one PDF into the destination directory. Returns an
// empty path when the file is already there.
func (f *Fetcher) download(ctx context.Context, pdfURL string) (string, error) {
	if f.visited[pdfURL] || !f.shouldProcessURL(pdfURL) {
		return "", nil
	}
	f.visited[pdfURL] = true

	parsed, err := url.Parse(pdfURL)
	if err != nil {
		return "", err
	}
	name := path.Base(parsed.Path)
	dest := filepath.Join(f.config.DestDir, name)

	if _, err := os.Stat(dest); err == nil {
		return "", nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	if f.config.OnProgress != nil {
		f.config.OnProgress(pdfURL)
	}

	resp, err := f.client.Get(pdfURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, pdfURL)
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("failed to download %s: %w", pdfURL, err)
	}

	return dest, out.Close()
}
