// Package gallery binds the feed engine to the image gallery API.
//
// It provides the Image model, the API binding for listing and uploading
// images, upload payload validation, and Feed: one query cache, one fetch
// coordinator, the "images" pagination controller and the upload mutation
// wired together. A Revalidator reloads the first page in the background
// whenever an upload (or a manual invalidation) made it stale.
//
// Example usage:
//
//	c, _ := client.New(client.DefaultConfig("http://localhost:3000", "gallery-feed/1.0"))
//	feed, _ := gallery.NewFeed(gallery.NewAPI(c), gallery.FeedOptions{})
//
//	feed.LoadFirst(ctx)
//	feed.LoadNext(ctx)
//	img, err := feed.Submit(ctx, gallery.NewImage{Title: "Cat", Description: "A cat", URL: "https://..."})
package gallery
