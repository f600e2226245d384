package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawl_EmptySeed(t *testing.T) {
	c := New(Config{})

	pages, err := c.Crawl(context.Background(), "")
	assert.Equal(t, ErrNoSeedURL, err)
	assert.Nil(t, pages)
}

func TestCrawl_SinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Acme</title></head>
			<body><p>Acme builds anvils.</p><script>ignore()</script></body></html>`)
	}))
	defer server.Close()

	c := New(Config{MaxPages: 5})

	pages, err := c.Crawl(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	assert.Equal(t, "Acme", pages[0].Title)
	assert.Contains(t, pages[0].Text, "Acme builds anvils.")
	assert.NotContains(t, pages[0].Text, "ignore()")
}

func TestCrawl_FollowsSameHostLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>
			<p>home</p>
			<a href="/about">About</a>
			<a href="https://elsewhere.test/offsite">Offsite</a>
		</body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><p>about page</p></body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(Config{MaxPages: 5})

	pages, err := c.Crawl(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Contains(t, pages[0].Text, "home")
	assert.Contains(t, pages[1].Text, "about page")
}

func TestCrawl_RespectsPageCap(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><p>page %s</p>
			<a href="/p1">1</a><a href="/p2">2</a><a href="/p3">3</a><a href="/p4">4</a>
		</body></html>`, r.URL.Path)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(Config{MaxPages: 2})

	pages, err := c.Crawl(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestCrawl_AllPagesBroken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(Config{MaxPages: 3})

	pages, err := c.Crawl(context.Background(), server.URL)
	assert.Equal(t, ErrNoPages, err)
	assert.Nil(t, pages)
}

func TestCrawl_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	c := New(Config{MaxPages: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Crawl(ctx, server.URL)
	assert.Error(t, err)
}
