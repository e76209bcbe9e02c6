package pagination

import "errors"

// ErrStaleResultDiscarded marks a page result that settled after a newer
// LoadFirst superseded it. It is logged and counted, never returned.
var ErrStaleResultDiscarded = errors.New("stale page result discarded")
