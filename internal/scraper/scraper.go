// Package scraper fetches a news page and extracts a post draft from it.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/html"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultMaxBody = 2 << 20
	MaxTags        = 10
	maxRedirects   = 5
	userAgent      = "Mozilla/5.0 (compatible; ainews-scraper/1.0)"
)

var (
	// ErrUnsupportedURL is returned for anything but absolute http(s) URLs.
	ErrUnsupportedURL = errors.New("scraper: only http and https URLs are supported")
	// ErrNoContent is returned when a page yields neither title nor text.
	ErrNoContent = errors.New("scraper: page has no extractable content")
	// ErrBlockedAddress is returned when a host resolves to a loopback,
	// private, link-local or otherwise non-public address.
	ErrBlockedAddress = errors.New("scraper: destination address is not public")
	// ErrNotHTML is returned for responses that are not HTML documents.
	ErrNotHTML = errors.New("scraper: response is not an HTML document")
)

// sharedAddressSpace is carrier-grade NAT space, not covered by IsPrivate.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// Article is the draft extracted from a page.
type Article struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// Fetcher downloads pages with a bounded body and timeout. Connections to
// non-public addresses are refused at dial time, so redirects and DNS
// answers cannot reach internal services.
type Fetcher struct {
	Client  *http.Client
	Timeout time.Duration
	MaxBody int64
	// AllowPrivate lifts the address check (tests against local servers).
	AllowPrivate bool
}

// New returns a Fetcher; zero values select the defaults.
func New(timeout time.Duration, maxBody int64) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	f := &Fetcher{Timeout: timeout, MaxBody: maxBody}
	dialer := &net.Dialer{Timeout: timeout, Control: f.checkDial}
	f.Client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: timeout,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("scraper: stopped after %d redirects", maxRedirects)
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return ErrUnsupportedURL
			}
			return nil
		},
	}
	return f
}

// checkDial runs after name resolution, once per address tried.
func (f *Fetcher) checkDial(_, address string, _ syscall.RawConn) error {
	if f.AllowPrivate {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	if !IsPublicAddr(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
	}
	return nil
}

// IsPublicAddr reports whether ip is a globally routable unicast address.
func IsPublicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsGlobalUnicast() &&
		!ip.IsPrivate() &&
		!sharedAddressSpace.Contains(ip)
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// Fetch downloads rawURL and extracts its article.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Article, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrUnsupportedURL
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("scraper: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraper: fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scraper: fetch %s: HTTP %d", u.Host, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !isHTML(ct) {
		return nil, fmt.Errorf("%w (got %q)", ErrNotHTML, ct)
	}

	// Anything past the limit is dropped; the parser tolerates truncation.
	return Extract(io.LimitReader(resp.Body, f.MaxBody))
}

// Extract parses an HTML document.
func Extract(r io.Reader) (*Article, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("scraper: parse html: %w", err)
	}

	p := &page{}
	p.walk(doc, false)

	a := &Article{
		Title:   firstNonEmpty(p.ogTitle, p.title, p.h1),
		Content: strings.Join(p.content(), "\n\n"),
		Tags:    normalizeTags(append(p.articleTags, splitKeywords(p.keywords)...)),
	}
	if a.Title == "" && a.Content == "" {
		return nil, ErrNoContent
	}
	return a, nil
}

type page struct {
	ogTitle     string
	title       string
	h1          string
	keywords    string
	articleTags []string
	articleText []string
	allText     []string
}

func (p *page) content() []string {
	if len(p.articleText) > 0 {
		return p.articleText
	}
	return p.allText
}

func (p *page) walk(n *html.Node, inArticle bool) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "template", "svg":
			return
		case "meta":
			p.meta(n)
		case "title":
			if p.title == "" {
				p.title = textOf(n)
			}
			return
		case "h1":
			if p.h1 == "" {
				p.h1 = textOf(n)
			}
		case "article":
			inArticle = true
		case "p":
			if text := textOf(n); text != "" {
				p.allText = append(p.allText, text)
				if inArticle {
					p.articleText = append(p.articleText, text)
				}
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, inArticle)
	}
}

func (p *page) meta(n *html.Node) {
	key := strings.ToLower(firstNonEmpty(attr(n, "property"), attr(n, "name")))
	value := collapse(attr(n, "content"))
	if value == "" {
		return
	}
	switch key {
	case "og:title":
		if p.ogTitle == "" {
			p.ogTitle = value
		}
	case "article:tag":
		p.articleTags = append(p.articleTags, value)
	case "keywords":
		p.keywords = value
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return collapse(sb.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// normalizeTags trims, drops duplicates case-insensitively keeping the first
// spelling, and caps the list at MaxTags.
func normalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, min(len(raw), MaxTags))
	for _, t := range raw {
		t = collapse(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}
