package source

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultDriveBaseURL = "https://drive.google.com"
	defaultDocsBaseURL  = "https://docs.google.com"
)

var driveHosts = map[string]bool{
	"drive.google.com": true,
	"docs.google.com":  true,
}

// Share links come as /file/d/<id>/view, open?id=<id> or <...>/<id>/edit.
var fileIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/([a-zA-Z0-9_-]+)/edit`),
}

// DriveLink is a parsed Google Drive or Docs share link.
type DriveLink struct {
	FileID string
	// Kind is "document", "spreadsheets" or "presentation" for docs.google.com
	// editor links and empty for plain Drive files.
	Kind string
}

// ParseDriveURL reports whether raw is an http(s) Drive/Docs share link with
// an extractable file ID.
func ParseDriveURL(raw string) (DriveLink, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return DriveLink{}, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return DriveLink{}, false
	}
	host := strings.ToLower(u.Hostname())
	if !driveHosts[host] {
		return DriveLink{}, false
	}

	target := u.EscapedPath()
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}

	var id string
	for _, re := range fileIDPatterns {
		if m := re.FindStringSubmatch(target); m != nil {
			id = m[1]
			break
		}
	}
	if id == "" {
		return DriveLink{}, false
	}

	link := DriveLink{FileID: id}
	if host == "docs.google.com" {
		switch seg := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0]; seg {
		case "document", "spreadsheets", "presentation":
			link.Kind = seg
		}
	}
	return link, true
}

// downloadURL returns the direct-download form of the link. Docs editor
// files are exported (documents and slides as text, sheets as CSV).
func (l DriveLink) downloadURL(driveBase, docsBase string) string {
	id := url.PathEscape(l.FileID)
	switch l.Kind {
	case "document":
		return docsBase + "/document/d/" + id + "/export?format=txt"
	case "spreadsheets":
		return docsBase + "/spreadsheets/d/" + id + "/export?format=csv"
	case "presentation":
		return docsBase + "/presentation/d/" + id + "/export/txt"
	}
	return driveBase + "/uc?export=download&id=" + url.QueryEscape(l.FileID)
}

// confirmURL inspects an HTML interstitial and returns the follow-up URL when
// it is Drive's "can't scan this file for viruses" warning. Both the legacy
// confirm link and the newer download form are recognised. Relative targets
// are resolved against base.
func confirmURL(base *url.URL, page []byte) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", false
	}

	if form := doc.Find("form#download-form").First(); form.Length() > 0 {
		action, ok := form.Attr("action")
		if !ok {
			return "", false
		}
		target, err := base.Parse(action)
		if err != nil {
			return "", false
		}
		q := target.Query()
		form.Find(`input[type="hidden"]`).Each(func(_ int, in *goquery.Selection) {
			name, _ := in.Attr("name")
			value, _ := in.Attr("value")
			if name != "" {
				q.Set(name, value)
			}
		})
		target.RawQuery = q.Encode()
		return allowedConfirm(base, target)
	}

	if !strings.Contains(strings.ToLower(doc.Text()), "virus scan warning") {
		return "", false
	}
	href, ok := doc.Find(`a[href^="/uc?export=download"]`).First().Attr("href")
	if !ok {
		return "", false
	}
	target, err := base.Parse(href)
	if err != nil {
		return "", false
	}
	return allowedConfirm(base, target)
}

// allowedConfirm only follows links back to the same host or another Google host.
func allowedConfirm(base, target *url.URL) (string, bool) {
	host := strings.ToLower(target.Hostname())
	if host != strings.ToLower(base.Hostname()) && !strings.HasSuffix(host, ".google.com") {
		return "", false
	}
	return target.String(), true
}
