// Package crawler fetches brand websites for the knowledge
// acquisition sub-pipeline and extracts their visible text.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Page is one crawled page with its extracted text.
type Page struct {
	URL   string
	Title string
	Text  string
}

var (
	// ErrNoSeedURL is returned when the seed URL is empty
	ErrNoSeedURL = errors.New("seed URL cannot be empty")
	// ErrNoPages is returned when nothing could be fetched
	ErrNoPages = errors.New("no pages could be crawled")
)

const maxBodyBytes = 2 * 1024 * 1024

// Crawler fetches a seed page and follows same-host links up to a
// page cap. It is deliberately shallow: the brand-document builder
// only needs enough text to distill, not a full site mirror.
type Crawler struct {
	maxPages   int
	httpClient *http.Client
}

type Config struct {
	MaxPages int
	Timeout  time.Duration
}

// New creates a Crawler.
func New(cfg Config) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Crawler{
		maxPages:   cfg.MaxPages,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Crawl fetches the seed URL and same-host pages linked from it,
// breadth-first, up to the configured page cap.
func (c *Crawler) Crawl(ctx context.Context, seedURL string) ([]Page, error) {
	if seedURL == "" {
		return nil, ErrNoSeedURL
	}

	seed, err := url.Parse(seedURL)
	if err != nil || seed.Host == "" {
		return nil, fmt.Errorf("invalid seed URL %q", seedURL)
	}

	visited := map[string]bool{}
	queue := []string{seed.String()}
	var pages []Page

	for len(queue) > 0 && len(pages) < c.maxPages {
		target := queue[0]
		queue = queue[1:]
		if visited[target] {
			continue
		}
		visited[target] = true

		page, links, err := c.fetch(ctx, target)
		if err != nil {
			// A single broken page does not fail the crawl.
			continue
		}
		pages = append(pages, *page)

		for _, link := range links {
			resolved := resolveLink(seed, link)
			if resolved != "" && !visited[resolved] {
				queue = append(queue, resolved)
			}
		}
	}

	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	return pages, nil
}

func (c *Crawler) fetch(ctx context.Context, target string) (*Page, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", "brandforge-crawler/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("status %d fetching %s", resp.StatusCode, target)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "text/html") {
		return nil, nil, fmt.Errorf("unsupported content type %q", ct)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, err
	}

	title, text, links := extract(doc)
	return &Page{URL: target, Title: title, Text: text}, links, nil
}

// extract walks the parsed document collecting the title, visible
// text, and outbound links. Script and style content is skipped.
func extract(doc *html.Node) (title, text string, links []string) {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if n.FirstChild != nil && title == "" {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				for _, attr := range n.Attr {
					if attr.Key == "href" {
						links = append(links, attr.Val)
					}
				}
			case "p", "br", "div", "li", "h1", "h2", "h3", "h4":
				b.WriteString("\n")
			}
		case html.TextNode:
			trimmed := strings.TrimSpace(n.Data)
			if trimmed != "" {
				b.WriteString(trimmed)
				b.WriteString(" ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return title, strings.TrimSpace(b.String()), links
}

// resolveLink resolves href against the seed and returns it only when
// it stays on the seed host.
func resolveLink(seed *url.URL, href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := seed.ResolveReference(parsed)
	if resolved.Host != seed.Host {
		return ""
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}
