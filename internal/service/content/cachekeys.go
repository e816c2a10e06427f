package content

// Cache keys for rendered page HTML. Writes invalidate these synchronously
// before reporting success, so the public view never waits for TTL expiry.

func publishedKey(slug string) string { return "page:html:slug:" + slug }
func previewKey(slug string) string   { return "page:html:preview:" + slug }
func pageIDKey(pageID string) string  { return "page:html:id:" + pageID }

// keysForPage lists every cache key a page version can be served under.
func keysForPage(slug string, pageIDs ...string) []string {
	keys := []string{publishedKey(slug), previewKey(slug)}
	for _, id := range pageIDs {
		if id != "" {
			keys = append(keys, pageIDKey(id))
		}
	}
	return keys
}
