package httpcache

import (
	"net/url"
	"testing"
)

func TestKeyFor(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		query  url.Values
		want   string
		wantOK bool
	}{
		{
			name:   "first page",
			path:   "/api/images",
			want:   "gallery:pages:api/images:first",
			wantOK: true,
		},
		{
			name:   "cursor page",
			path:   "/api/images",
			query:  url.Values{"after": []string{"c1"}},
			want:   "gallery:pages:api/images:after=c1",
			wantOK: true,
		},
		{
			name:   "empty cursor is the first page",
			path:   "/api/images/",
			query:  url.Values{"after": []string{""}},
			want:   "gallery:pages:api/images:first",
			wantOK: true,
		},
		{
			name:   "empty foreign params are ignored",
			path:   "/api/images",
			query:  url.Values{"size": []string{""}, "after": []string{"c2"}},
			want:   "gallery:pages:api/images:after=c2",
			wantOK: true,
		},
		{
			name:   "foreign params are not cached",
			path:   "/api/images",
			query:  url.Values{"size": []string{"20"}},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := KeyFor(tt.path, tt.query)
			if ok != tt.wantOK {
				t.Fatalf("KeyFor() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && key.String() != tt.want {
				t.Errorf("Key.String() = %q, want %q", key.String(), tt.want)
			}
		})
	}
}

func TestIndexKey(t *testing.T) {
	if got := indexKey("/api/images/"); got != "gallery:pages:api/images:index" {
		t.Errorf("indexKey() = %q", got)
	}
	first, _ := KeyFor("/api/images", nil)
	if first.String() == indexKey("/api/images") {
		t.Error("page key must not collide with the index key")
	}
}
