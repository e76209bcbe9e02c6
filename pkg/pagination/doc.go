// Package pagination drives cursor-based infinite pagination on top of the
// query cache and fetch coordinator.
//
// A Controller owns the ordered list of pages loaded for one query name. The
// first page is cached under [name], every later page under
// [name, {after: cursor}]. The server returns the cursor of the next page
// with each page; an empty cursor marks the last page.
//
// Example usage:
//
//	ctrl, err := pagination.NewController(coord, pagination.Config[gallery.Image]{
//	    Name:  "images",
//	    Fetch: api.ListImages,
//	    ID:    func(img gallery.Image) string { return img.ID },
//	})
//	err = ctrl.LoadFirst(ctx)
//	err = ctrl.LoadNext(ctx)
//	items := ctrl.FlatItems()
//
// # States
//
//	Idle         -> LoadFirst -> LoadingFirst
//	LoadingFirst -> success   -> Ready (pages = [first])
//	LoadingFirst -> failure   -> Error (pages unchanged)
//	Ready        -> LoadNext  -> LoadingMore (IsFetchingNext)
//	LoadingMore  -> success   -> Ready (page appended)
//	LoadingMore  -> failure   -> Ready (NextErr set, pages unchanged)
//
// Every LoadFirst bumps the generation. A result that settles under an older
// generation is discarded, so a superseded load can never overwrite the
// pages of a newer one. LoadNext is a no-op unless the controller is Ready,
// the last page has a cursor and no next page is already loading.
//
// Items whose ID is already present in an earlier page are dropped when a
// page is appended; the first occurrence wins.
package pagination
