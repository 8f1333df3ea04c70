package pages

import "github.com/autozen/backend/cache"

func activePagesKey() string        { return "active_pages" }
func pageKey(slug string) string    { return cache.Key("page", slug) }
func pageTypeKey(t PageType) string { return cache.Key("page", "type", string(t)) }
func activeFAQsKey() string         { return "active_faqs" }

// pageFanout covers the page's slug key, its type list and the global
// list.
func pageFanout(p *Page) []string {
	return []string{
		pageKey(p.Slug),
		pageTypeKey(p.PageType),
		activePagesKey(),
	}
}
