package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MediaScan/internal/config"
	"MediaScan/internal/domain"
)

func siteConfig(name, url string) config.SourceConfig {
	return config.SourceConfig{
		Name:  name,
		Group: "web",
		URL:   url,
		Options: map[string]string{
			"item":    "article",
			"title":   "h2",
			"link":    "a",
			"date":    ".date",
			"summary": ".chapo",
		},
	}
}

func TestSiteScannerFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<main>
		  <article>
		    <h2>Le gouvernement annonce une réforme</h2>
		    <a href="/articles/reforme-2026">lire</a>
		    <span class="date">lundi 31 août 2026</span>
		    <p class="chapo">Le conseil des ministres a adopté le texte.</p>
		  </article>
		  <article>
		    <h2>Vieille dépêche archivée ici</h2>
		    <a href="/articles/archive">lire</a>
		    <span class="date">3 janvier 2020</span>
		    <p class="chapo">Une archive ancienne.</p>
		  </article>
		</main>`))
	}))
	defer server.Close()

	scanner, err := NewSiteScanner(server.Client(), siteConfig("lefaso.net", server.URL))
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}

	since := time.Date(2026, time.August, 25, 0, 0, 0, 0, time.UTC)
	items, err := scanner.Fetch(context.Background(), since, 50)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected 1 fresh item, got %d", len(items))
	}

	item := items[0]
	if item.Title != "Le gouvernement annonce une réforme" {
		t.Fatalf("unexpected title: %q", item.Title)
	}
	if item.URL != server.URL+"/articles/reforme-2026" {
		t.Fatalf("relative link not resolved: %s", item.URL)
	}
	if item.Body != "Le conseil des ministres a adopté le texte." {
		t.Fatalf("unexpected body: %q", item.Body)
	}
	if item.Kind != domain.KindArticle || item.Platform != domain.PlatformWeb {
		t.Fatalf("unexpected kind/platform: %s/%s", item.Kind, item.Platform)
	}
	if item.ID != domain.ItemID(item.URL, "") {
		t.Fatalf("item id must derive from url")
	}
	want := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	if !item.PublishedAt.Equal(want) {
		t.Fatalf("unexpected date: %v", item.PublishedAt)
	}
}

func TestSiteScannerHonorsLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<main>
		  <article><h2>Premier article du jour</h2><a href="/a/1">x</a></article>
		  <article><h2>Deuxième article du jour</h2><a href="/a/2">x</a></article>
		  <article><h2>Troisième article du jour</h2><a href="/a/3">x</a></article>
		</main>`))
	}))
	defer server.Close()

	cfg := siteConfig("lefaso.net", server.URL)
	delete(cfg.Options, "date")
	scanner, err := NewSiteScanner(server.Client(), cfg)
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}

	items, err := scanner.Fetch(context.Background(), time.Time{}, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(items))
	}
}

func TestSiteScannerRequiresSelectors(t *testing.T) {
	t.Parallel()

	cfg := config.SourceConfig{Name: "broken", URL: "https://example.org"}
	if _, err := NewSiteScanner(nil, cfg); err == nil {
		t.Fatal("missing item selector must error")
	}

	cfg = config.SourceConfig{Name: "broken", Options: map[string]string{"item": "article"}}
	if _, err := NewSiteScanner(nil, cfg); err == nil {
		t.Fatal("missing url must error")
	}
}

func TestSiteScannerUsesInjectedClientTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`<main></main>`))
	}))
	defer server.Close()

	client := &http.Client{Timeout: 20 * time.Millisecond}
	scanner, err := NewSiteScanner(client, siteConfig("lefaso.net", server.URL))
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}

	if _, err := scanner.Fetch(context.Background(), time.Time{}, 10); err == nil {
		t.Fatal("expected timeout from the injected client")
	}
}

func TestSiteScannerPropagatesHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	scanner, err := NewSiteScanner(server.Client(), siteConfig("lefaso.net", server.URL))
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}

	if _, err := scanner.Fetch(context.Background(), time.Time{}, 10); err == nil {
		t.Fatal("expected error on 502")
	}
}
