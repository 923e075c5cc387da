package app

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateProjectName makes name usable as a name of the result project.
//
// Characters "/", "\" and "|" are removed.
// When nothing is left, "<sourceName>_tagged" is used instead.
func ValidateProjectName(name string, sourceName string) string {
	name = strings.NewReplacer("/", "", `\`, "", "|", "").Replace(name)
	if strings.TrimSpace(name) == "" {
		return sourceName + "_tagged"
	}
	return name
}

// PreviewUrl builds a URL of a w x h thumbnail of the image at ref.
//
// Scheme, host, query and fragment of ref are kept.
// Empty ref gives empty string, and ref which is not a URL is returned as it is.
func PreviewUrl(ref string, w int, h int) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}

	p := u.EscapedPath()
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
	preview := fmt.Sprintf("%s/previews/q/ext:jpeg/resize:fill:%d:%d:0/q:70/plain%s", origin, w, h, p)
	if u.RawQuery != "" || u.ForceQuery {
		preview += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		preview += "#" + u.EscapedFragment()
	}
	return preview
}
