package cache

import (
	"net/url"
	"time"
)

const (
	IndexPagePrefix  = "page:index:"
	IndexPagePattern = IndexPagePrefix + "*"

	// InvalidateChannel carries purge notices between instances.
	InvalidateChannel = "cache:invalidate"

	CSRFTokenPrefix = "csrf:"
)

const DefaultIndexPageTTL = 20 * time.Second

// IndexPageKey keys a rendered index page by its query string. Parameters are
// re-encoded in sorted order so ?b=1&a=2 and ?a=2&b=1 share an entry.
func IndexPageKey(rawQuery string) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return IndexPagePrefix + rawQuery
	}
	return IndexPagePrefix + values.Encode()
}
