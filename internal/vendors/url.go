package vendors

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var tokenRe = regexp.MustCompile(`\{[a-zA-Z]+\}`)

// RenderSearchURL substitutes the query context into a vendor's URL template.
// Pure, no I/O. Unbound optional tokens collapse to the empty string — the
// output never contains literal token text — and every substituted value is
// percent-encoded. The rendered URL must parse as an absolute http(s) URL.
func RenderSearchURL(v VendorRecord, ctx Context) (string, error) {
	replacer := strings.NewReplacer(
		"{query}", url.QueryEscape(ctx.Query),
		"{year}", url.QueryEscape(ctx.Year),
		"{make}", url.QueryEscape(ctx.Make),
		"{model}", url.QueryEscape(ctx.Model),
		"{zip}", url.QueryEscape(ctx.Zip),
	)
	rendered := replacer.Replace(v.URLTemplate)

	if m := tokenRe.FindString(rendered); m != "" {
		return "", fmt.Errorf("unknown token %s in template", m)
	}

	u, err := url.Parse(rendered)
	if err != nil {
		return "", fmt.Errorf("parse rendered url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("rendered url is not absolute http(s): %q", rendered)
	}
	if u.Host == "" {
		return "", fmt.Errorf("rendered url has no host: %q", rendered)
	}
	return rendered, nil
}
