package views

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/folio/search"
)

// BuildURL joins path segments onto a base URL, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PathEscape wraps url.PathEscape for use in templates.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// RelatedPosts returns posts that share at least one tag with current.
func RelatedPosts(current search.Item, posts search.Collection) search.Collection {
	tagSet := make(map[string]struct{})
	for _, t := range search.Strings(current, "tags") {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	slug := search.String(current, "slug")
	var related search.Collection
	for _, p := range posts {
		if search.String(p, "slug") == slug {
			continue
		}
		for _, t := range search.Strings(p, "tags") {
			if _, ok := tagSet[strings.ToLower(strings.TrimSpace(t))]; ok {
				related = append(related, p)
				break
			}
		}
	}
	return related
}

// ItemID returns the id an item is addressed by in URLs: "slug" for blog
// posts, "id" otherwise, falling back to the other.
func ItemID(kind string, item search.Item) string {
	first, second := "id", "slug"
	if kind == "blog" {
		first, second = second, first
	}
	if s := field(item, first); s != "" {
		return s
	}
	return field(item, second)
}

// field returns the value at key formatted for display. Numbers decoded
// from JSON print without a fraction.
func field(item search.Item, key string) string {
	v, ok := search.Lookup(item, key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprint(int64(t))
		}
	}
	return fmt.Sprint(v)
}

// FilterPillClass returns CSS classes for a filter pill, with active variant.
func FilterPillClass(active bool) string {
	if active {
		return "filter-pill active"
	}
	return "filter-pill"
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      BuildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	return marshalLD(data)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg SiteConfig, post search.Item) string {
	postURL := BuildURL(cfg.URL, "blog", ItemID("blog", post))
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      field(post, "title"),
		"description":   field(post, "excerpt"),
		"datePublished": field(post, "publishedDate"),
		"url":           postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	if tags := search.Strings(post, "tags"); len(tags) > 0 {
		data["keywords"] = strings.Join(tags, ", ")
	}
	return marshalLD(data)
}

func marshalLD(data map[string]interface{}) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

var navItems = []struct{ key, href, label string }{
	{"resume", "/", "Resume"},
	{"projects", "/projects/", "Projects"},
	{"blog", "/blog/", "Blog"},
}

func navClass(key, active string) string {
	if key == active {
		return "nav-link active"
	}
	return "nav-link"
}

// ldScript embeds a JSON-LD document. json.Marshal escapes <, > and &, so
// the payload cannot close the script element.
func ldScript(ld string) templ.Component {
	return templ.Raw(`<script type="application/ld+json">` + ld + `</script>`)
}

func (p Page) title() string {
	if p.Meta.Title != "" && p.Meta.Title != p.Site.Name {
		return p.Meta.Title + " | " + p.Site.Name
	}
	return p.Site.Name
}

func (p Page) description() string {
	if p.Meta.Description != "" {
		return p.Meta.Description
	}
	return p.Site.Description
}

func (p Page) ogType() string {
	if p.Meta.OGType != "" {
		return p.Meta.OGType
	}
	return "website"
}

func (p Page) structuredData() string {
	if p.Meta.JSONLD != "" {
		return p.Meta.JSONLD
	}
	return WebsiteJsonLD(p.Site)
}

func (l Listing) baseURL() string {
	return "/" + l.Kind + "/"
}

func (l Listing) selected(id string) bool {
	for _, f := range l.Query.Filters {
		if f == id {
			return true
		}
	}
	return false
}

func listingURL(base string, q search.Query) string {
	if enc := q.Encode(); enc != "" {
		return base + "?" + enc
	}
	return base
}

func activeSummary(q search.Query, filterType string) string {
	var parts []string
	if n := len(q.Filters); n > 0 {
		noun := filterType
		if n > 1 {
			noun += "s"
		}
		parts = append(parts, strconv.Itoa(n)+" "+noun+" selected")
	}
	if strings.TrimSpace(q.Term) != "" {
		parts = append(parts, "Search active")
	}
	return strings.Join(parts, " • ")
}

func itemURL(kind string, item search.Item) string {
	return "/" + kind + "/" + PathEscape(ItemID(kind, item)) + "/"
}

// projectMeta is "year • status", either part optional.
func projectMeta(p search.Item) string {
	return joinNonEmpty(" • ", field(p, "year"), projectStatus(p))
}

func projectStatus(p search.Item) string {
	if s := search.String(p, "status"); s != "" {
		return search.StatusLabel(s)
	}
	if search.Bool(p, "comingSoon") {
		return "Coming Soon"
	}
	return ""
}

// postMeta is "date • read time"; empty without a date.
func postMeta(post search.Item) string {
	date := field(post, "publishedDate")
	if date == "" {
		return ""
	}
	return joinNonEmpty(" • ", date, field(post, "readTime"))
}

type projectLink struct{ label, href string }

func projectLinks(p search.Item) []projectLink {
	links, _ := p["links"].(map[string]any)
	var out []projectLink
	for _, key := range []string{"github", "demo", "article"} {
		if href, _ := links[key].(string); href != "" {
			out = append(out, projectLink{label: key, href: href})
		}
	}
	return out
}

func certIcon(c search.Item) string {
	if icon := field(c, "icon"); icon != "" {
		return icon
	}
	return "fas fa-certificate"
}

// items converts a decoded JSON array into its object elements.
func items(v any) search.Collection {
	arr, _ := v.([]any)
	out := make(search.Collection, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
