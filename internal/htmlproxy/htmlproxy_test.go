package htmlproxy

import (
	"strings"
	"testing"
)

var testCfg = Config{
	Host:         "storage.googleapis.com",
	Bucket:       "pyplots-data",
	ParentOrigin: "https://pyplots.ai",
}

func TestValidateURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		url  string
		want string // "" means rejected
	}{
		{
			name: "canonical artifact",
			url:  "https://storage.googleapis.com/pyplots-data/plots/scatter-basic/plotly/plot.html",
			want: "https://storage.googleapis.com/pyplots-data/plots/scatter-basic/plotly/plot.html",
		},
		{
			name: "host case-insensitive",
			url:  "https://Storage.Googleapis.COM/pyplots-data/plots/a/b/plot.html",
			want: "https://storage.googleapis.com/pyplots-data/plots/a/b/plot.html",
		},
		{
			name: "query and fragment stripped",
			url:  "https://storage.googleapis.com/pyplots-data/plots/a/b/plot.html?x=1#frag",
			want: "https://storage.googleapis.com/pyplots-data/plots/a/b/plot.html",
		},
		{name: "http scheme", url: "http://storage.googleapis.com/pyplots-data/plots/a/b/plot.html"},
		{name: "wrong host", url: "https://evil.example.com/pyplots-data/plots/a/b/plot.html"},
		{name: "host suffix trick", url: "https://storage.googleapis.com.evil.example.com/pyplots-data/plots/a/b/plot.html"},
		{name: "wrong bucket", url: "https://storage.googleapis.com/other-bucket/plots/a/b/plot.html"},
		{name: "bucket only", url: "https://storage.googleapis.com/pyplots-data/"},
		{name: "path traversal", url: "https://storage.googleapis.com/pyplots-data/plots/../secrets.html"},
		{name: "userinfo in authority", url: "https://user@storage.googleapis.com/pyplots-data/plots/a/b/plot.html"},
		{name: "disallowed character", url: "https://storage.googleapis.com/pyplots-data/plots/a/b/plot%20x.html"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateURL(testCfg, tc.url)
			if tc.want == "" {
				if err == nil {
					t.Fatalf("expected rejection, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected rejection: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestInjectSizeReporterBeforeBody(t *testing.T) {
	t.Parallel()

	doc := []byte("<html><body><div>plot</div></body></html>")
	out := string(InjectSizeReporter(testCfg, doc))

	if !strings.Contains(out, `"pyplots-size"`) {
		t.Fatal("missing size message type")
	}
	if !strings.Contains(out, `"https://pyplots.ai"`) {
		t.Fatal("postMessage target is not the configured origin")
	}
	if strings.Contains(out, `"*"`) {
		t.Fatal("postMessage must never target *")
	}
	if strings.Index(out, "<script>") > strings.Index(out, "</body>") {
		t.Fatal("script not injected before </body>")
	}
}

func TestInjectSizeReporterFallbacks(t *testing.T) {
	t.Parallel()

	noBody := string(InjectSizeReporter(testCfg, []byte("<html><div>x</div></html>")))
	if strings.Index(noBody, "<script>") > strings.Index(noBody, "</html>") {
		t.Fatal("script not injected before </html>")
	}

	fragment := string(InjectSizeReporter(testCfg, []byte("<div>x</div>")))
	if !strings.HasSuffix(fragment, "</script>") {
		t.Fatal("script not appended to fragment")
	}
}
