package scraper

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const newsPage = `<!doctype html>
<html><head>
<title>Fallback title</title>
<meta property="og:title" content="  GPT-5 ships   today ">
<meta property="article:tag" content="AI">
<meta property="article:tag" content="LLM">
<meta name="keywords" content="ai, research ,  , Models">
<script>var ignored = "<p>nope</p>";</script>
</head><body>
<nav><p>Menu entry</p></nav>
<article>
<h1>Headline</h1>
<p>First   paragraph
 spans lines.</p>
<p>Second <b>bold</b> paragraph.</p>
</article>
<footer><p>Copyright</p></footer>
</body></html>`

func TestExtract_NewsArticle(t *testing.T) {
	a, err := Extract(strings.NewReader(newsPage))
	require.NoError(t, err)

	assert.Equal(t, "GPT-5 ships today", a.Title)
	assert.Equal(t, "First paragraph spans lines.\n\nSecond bold paragraph.", a.Content)
	assert.Equal(t, []string{"AI", "LLM", "research", "Models"}, a.Tags)
}

func TestExtract_TitleFallbacks(t *testing.T) {
	a, err := Extract(strings.NewReader(`<html><head><title> Page </title></head><body><h1>Heading</h1><p>Body</p></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Page", a.Title)
	assert.Equal(t, "Body", a.Content, "without <article> every paragraph counts")

	a, err = Extract(strings.NewReader(`<html><body><h1>Only <i>heading</i></h1></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Only heading", a.Title)
	assert.Empty(t, a.Content)
	assert.Empty(t, a.Tags)
}

func TestExtract_EmptyPage(t *testing.T) {
	_, err := Extract(strings.NewReader(`<html><body><div></div></body></html>`))
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestNormalizeTags_CapsAtMax(t *testing.T) {
	raw := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		raw = append(raw, fmt.Sprintf("tag%d", i))
	}
	raw = append([]string{"Dup", "dup"}, raw...)

	got := normalizeTags(raw)
	require.Len(t, got, MaxTags)
	assert.Equal(t, "Dup", got[0])
	assert.Equal(t, "tag0", got[1])
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/news":
			assert.NotEmpty(t, r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(newsPage))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(newsPage))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(time.Second, 0)
	f.AllowPrivate = true
	a, err := f.Fetch(context.Background(), srv.URL+"/news")
	require.NoError(t, err)
	assert.Equal(t, "GPT-5 ships today", a.Title)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "HTTP 404")

	fast := New(50*time.Millisecond, 0)
	fast.AllowPrivate = true
	_, err = fast.Fetch(context.Background(), srv.URL+"/slow")
	assert.Error(t, err)
}

func TestFetch_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Kept</title></head><body><p>` + strings.Repeat("x", 4096) + `</p><p>Dropped</p></body></html>`))
	}))
	defer srv.Close()

	f := New(time.Second, 512)
	f.AllowPrivate = true
	a, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Kept", a.Title)
	assert.NotContains(t, a.Content, "Dropped")
}

func TestFetch_RejectsUnsupportedURLs(t *testing.T) {
	f := New(0, 0)
	for _, raw := range []string{"ftp://example.com/a", "file:///etc/passwd", "not a url", "//example.com"} {
		_, err := f.Fetch(context.Background(), raw)
		assert.ErrorIs(t, err, ErrUnsupportedURL, raw)
	}
}

func TestFetch_BlocksNonPublicAddresses(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(newsPage))
	}))
	defer srv.Close()

	_, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)

	f := New(time.Second, 0)
	for _, raw := range []string{srv.URL + "/news", "http://localhost:" + port + "/news"} {
		_, err := f.Fetch(context.Background(), raw)
		assert.ErrorIs(t, err, ErrBlockedAddress, raw)
	}
	assert.Zero(t, hits)
}

func TestIsPublicAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"8.8.8.8", true},
		{"2606:4700:4700::1111", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"0.0.0.0", false},
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"100.64.0.1", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"224.0.0.1", false},
		{"::ffff:127.0.0.1", false},
		{"::ffff:1.1.1.1", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPublicAddr(netip.MustParseAddr(tt.addr)), tt.addr)
	}
}

func TestFetch_ContentTypeAndRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"title":"not a page"}`))
		case "/untyped":
			w.Header()["Content-Type"] = nil
			_, _ = w.Write([]byte(newsPage))
		case "/xhtml":
			w.Header().Set("Content-Type", "application/xhtml+xml; charset=utf-8")
			_, _ = w.Write([]byte(newsPage))
		case "/moved":
			http.Redirect(w, r, "/xhtml", http.StatusFound)
		case "/loop":
			http.Redirect(w, r, "/loop", http.StatusFound)
		case "/ftp":
			http.Redirect(w, r, "ftp://example.com/file", http.StatusFound)
		}
	}))
	defer srv.Close()

	f := New(time.Second, 0)
	f.AllowPrivate = true
	ctx := context.Background()

	_, err := f.Fetch(ctx, srv.URL+"/data.json")
	assert.ErrorIs(t, err, ErrNotHTML)
	_, err = f.Fetch(ctx, srv.URL+"/untyped")
	assert.ErrorIs(t, err, ErrNotHTML)

	a, err := f.Fetch(ctx, srv.URL+"/moved")
	require.NoError(t, err)
	assert.Equal(t, "GPT-5 ships today", a.Title)

	_, err = f.Fetch(ctx, srv.URL+"/loop")
	assert.ErrorContains(t, err, "stopped after 5 redirects")
	_, err = f.Fetch(ctx, srv.URL+"/ftp")
	assert.ErrorIs(t, err, ErrUnsupportedURL)
}
