package pagination

import "context"

// Page is one page of items plus the cursor of the next page.
// An empty Cursor means this is the last page.
type Page[T any] struct {
	Items  []T
	Cursor string
}

// HasNext reports whether another page follows this one.
func (p Page[T]) HasNext() bool {
	return p.Cursor != ""
}

// Fetcher loads the page that starts at cursor. The empty cursor asks for the
// first page.
type Fetcher[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Status is the lifecycle state of a Controller.
type Status int

const (
	StatusIdle Status = iota
	StatusLoadingFirst
	StatusLoadingMore
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoadingFirst:
		return "loading_first"
	case StatusLoadingMore:
		return "loading_more"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is a snapshot of a Controller.
type State[T any] struct {
	Pages          []Page[T]
	Status         Status
	IsFetchingNext bool

	// Generation increases with every LoadFirst
	Generation uint64

	// Err is the failure of the last first-page load
	Err error

	// NextErr is the failure of the last next-page load
	NextErr error
}

// HasNextPage reports whether another page can be loaded. known is false
// until a page has been loaded.
func (s State[T]) HasNextPage() (has bool, known bool) {
	if len(s.Pages) == 0 {
		return false, false
	}
	return s.Pages[len(s.Pages)-1].HasNext(), true
}

// ItemCount returns the number of items across all pages.
func (s State[T]) ItemCount() int {
	n := 0
	for _, p := range s.Pages {
		n += len(p.Items)
	}
	return n
}

func (s State[T]) clone() State[T] {
	out := s
	out.Pages = make([]Page[T], len(s.Pages))
	copy(out.Pages, s.Pages)
	return out
}
