// Package ui is a Bubble Tea terminal browser for the gallery feed.
//
// The feed list shows every loaded image; "m" loads the next page, "r"
// refreshes, "u" opens the upload form. Feed state changes arrive as
// messages from a feed subscription, so background revalidation after an
// upload is rendered without user input.
package ui
