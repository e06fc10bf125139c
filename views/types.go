// Package views holds the site's templ components. Edit the .templ files
// and regenerate the *_templ.go files with `templ generate`.
package views

//go:generate templ generate

import "github.com/eringen/folio/search"

// SiteConfig holds the site-wide settings templates need.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	JSONLD      string
}

// Page is everything the layout needs besides the body.
type Page struct {
	Site   SiteConfig
	Meta   PageMeta
	Active string // nav section: "resume", "projects" or "blog"
	Views  int64  // visitor count; 0 hides the counter
}

// Listing is a searchable list page: the toolbar state and its results.
type Listing struct {
	Kind        string // "projects" or "blog", also the URL prefix
	Title       string
	Placeholder string
	FilterType  string // "status", "tag"
	Query       search.Query
	Options     []search.FilterOption
	Items       search.Collection
	Total       int  // items before search and filter
	Unavailable bool // the collection failed to load
}

// Resume holds the sections of the resume page. A nil section failed to
// load and is not rendered.
type Resume struct {
	Profile        search.Item
	Skills         search.Collection
	Experience     search.Collection
	Certifications search.Item
	Education      search.Collection
}
