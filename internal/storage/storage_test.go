package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pyplots/pyplots-backend/internal/data/repos/testutil"
)

var testCfg = Config{Bucket: "pyplots-data", Host: "storage.googleapis.com"}

func TestURLConvention(t *testing.T) {
	t.Parallel()

	if got := testCfg.PreviewURL("scatter-basic", "matplotlib"); got !=
		"https://storage.googleapis.com/pyplots-data/plots/scatter-basic/matplotlib/plot.png" {
		t.Fatalf("preview url = %s", got)
	}
	if got := testCfg.ThumbURL("scatter-basic", "matplotlib"); got !=
		"https://storage.googleapis.com/pyplots-data/plots/scatter-basic/matplotlib/plot_thumb.png" {
		t.Fatalf("thumb url = %s", got)
	}
	if got := testCfg.HTMLURL("scatter-basic", "plotly"); got !=
		"https://storage.googleapis.com/pyplots-data/plots/scatter-basic/plotly/plot.html" {
		t.Fatalf("html url = %s", got)
	}
}

func TestObjectKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url  string
		want string
	}{
		{"https://storage.googleapis.com/pyplots-data/plots/a/b/plot.png", "plots/a/b/plot.png"},
		{"https://Storage.googleapis.com/pyplots-data/plots/a/b/plot.png", "plots/a/b/plot.png"},
		{"https://storage.googleapis.com/other-bucket/plots/a/b/plot.png", ""},
		{"https://evil.example.com/pyplots-data/plots/a/b/plot.png", ""},
		{"://not-a-url", ""},
	}
	for _, tc := range cases {
		if got := testCfg.ObjectKey(tc.url); got != tc.want {
			t.Fatalf("ObjectKey(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("payload"))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testutil.Logger(t))

	body, status, err := f.Fetch(context.Background(), srv.URL+"/ok")
	if err != nil || status != http.StatusOK || string(body) != "payload" {
		t.Fatalf("ok fetch: body=%q status=%d err=%v", body, status, err)
	}

	_, status, err = f.Fetch(context.Background(), srv.URL+"/missing")
	if err != nil || status != http.StatusNotFound {
		t.Fatalf("missing fetch: status=%d err=%v", status, err)
	}

	_, status, err = f.Fetch(context.Background(), srv.URL+"/boom")
	if err != nil || status != http.StatusInternalServerError {
		t.Fatalf("upstream failure: status=%d err=%v", status, err)
	}

	srv.Close()
	if _, _, err = f.Fetch(context.Background(), srv.URL+"/ok"); err == nil {
		t.Fatal("expected connection error after server shutdown")
	}
}
