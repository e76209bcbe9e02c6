package httpcache

import (
	"net/url"
	"strings"
)

// CursorParam is the query parameter that selects the page after a cursor.
const CursorParam = "after"

const keyPrefix = "gallery:pages:"

// Key identifies one cached page: the collection path and the cursor the
// page starts after. The first page has an empty cursor.
type Key struct {
	Collection string
	Cursor     string
}

// KeyFor maps a list request onto a page key. It reports false when the
// query carries parameters other than the cursor; such responses are not
// cached.
func KeyFor(path string, query url.Values) (Key, bool) {
	for name, values := range query {
		if name == CursorParam {
			continue
		}
		for _, v := range values {
			if v != "" {
				return Key{}, false
			}
		}
	}
	return Key{
		Collection: normalizeCollection(path),
		Cursor:     query.Get(CursorParam),
	}, true
}

// String returns the Redis key of the page.
//
//	gallery:pages:api/images:first
//	gallery:pages:api/images:after=c1
func (k Key) String() string {
	collection := normalizeCollection(k.Collection)
	if k.Cursor == "" {
		return keyPrefix + collection + ":first"
	}
	return keyPrefix + collection + ":" + CursorParam + "=" + k.Cursor
}

// indexKey is the Redis set listing the cached pages of a collection.
func indexKey(collection string) string {
	return keyPrefix + normalizeCollection(collection) + ":index"
}

func normalizeCollection(path string) string {
	return strings.Trim(path, "/")
}
