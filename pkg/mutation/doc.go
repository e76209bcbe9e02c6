// Package mutation submits writes and keeps the query cache consistent with
// them.
//
// A Coordinator validates the payload, sends it once through its writer and,
// only when the server accepted it, invalidates the matching cache entries
// before observers are told about the success. A failed write leaves the
// cache untouched. Invalidation marks entries stale; the next load of each
// stale query goes to the server.
//
//	coord, err := mutation.New(qc, mutation.Config[gallery.NewImage, gallery.Image]{
//	    Name:       "create_image",
//	    Write:      api.CreateImage,
//	    Validate:   gallery.NewImage.Validate,
//	    Invalidate: cache.HasRoot("images"),
//	})
//	img, err := coord.Submit(ctx, payload)
package mutation
