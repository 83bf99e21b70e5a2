// Package htmlproxy validates bucket URLs for the HTML passthrough
// endpoint and injects the resize-reporting script served pages need to
// size their host iframe.
package htmlproxy

import (
	"fmt"
	"net/url"
	"strings"
)

// Config pins the only origin the proxy will fetch from and the parent
// origin the injected script posts to.
type Config struct {
	Host         string // exact bucket host, e.g. storage.googleapis.com
	Bucket       string // first path segment under the host
	ParentOrigin string // postMessage target, never "*"
}

// ValidateURL checks a candidate proxy target against the allowed
// origin and rebuilds it from its parsed parts, dropping any query and
// fragment. It returns the rebuilt URL or an error naming the failed
// check.
func ValidateURL(cfg Config, raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unparseable url")
	}
	if parsed.Scheme != "https" {
		return "", fmt.Errorf("scheme must be https")
	}
	if parsed.User != nil {
		return "", fmt.Errorf("userinfo not allowed")
	}
	if !strings.EqualFold(parsed.Host, cfg.Host) {
		return "", fmt.Errorf("host not allowed")
	}

	path := parsed.EscapedPath()
	prefix := "/" + cfg.Bucket + "/"
	if !strings.HasPrefix(path, prefix) {
		return "", fmt.Errorf("path outside bucket")
	}
	if strings.TrimPrefix(path, prefix) == "" {
		return "", fmt.Errorf("missing object path")
	}
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("path traversal")
	}
	for _, r := range path {
		if !allowedPathRune(r) {
			return "", fmt.Errorf("disallowed character in path")
		}
	}

	rebuilt := url.URL{Scheme: "https", Host: cfg.Host, Path: parsed.Path}
	return rebuilt.String(), nil
}

func allowedPathRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("._/+-", r)
}

// sizeReporter measures the rendered chart root and posts its size to
// the parent frame on load and again after short delays, since chart
// libraries render asynchronously. The target origin is substituted
// in; the rest is a fixed literal so nothing from the proxied document
// can reach it.
const sizeReporter = `<script>
(function () {
  var selectors = [".plotly-graph-div", ".bk-root", ".vega-embed", ".pyplots-frame", "svg", "canvas"];
  var padding = 20;
  function measure() {
    for (var i = 0; i < selectors.length; i++) {
      var el = document.querySelector(selectors[i]);
      if (el) {
        var rect = el.getBoundingClientRect();
        if (rect.width > 0 && rect.height > 0) return rect;
      }
    }
    var doc = document.documentElement;
    return { width: doc ? doc.scrollWidth : 0, height: doc ? doc.scrollHeight : 0 };
  }
  function report() {
    var rect = measure();
    window.parent.postMessage({
      type: "pyplots-size",
      width: Math.ceil(rect.width) + padding,
      height: Math.ceil(rect.height) + padding
    }, %q);
  }
  window.addEventListener("load", report);
  window.addEventListener("resize", report);
  setTimeout(report, 250);
  setTimeout(report, 1000);
})();
</script>`

// InjectSizeReporter inserts the size-reporting script into a proxied
// document: before </body> when present, else before </html>, else
// appended.
func InjectSizeReporter(cfg Config, doc []byte) []byte {
	script := fmt.Sprintf(sizeReporter, cfg.ParentOrigin)
	html := string(doc)

	for _, marker := range []string{"</body>", "</html>"} {
		if idx := strings.LastIndex(strings.ToLower(html), marker); idx >= 0 {
			return []byte(html[:idx] + script + html[idx:])
		}
	}
	return []byte(html + script)
}
