package gallery

import (
	"context"
	"fmt"

	"github.com/Sternrassler/gallery-feed/pkg/cache"
	"github.com/Sternrassler/gallery-feed/pkg/fetch"
	"github.com/Sternrassler/gallery-feed/pkg/logging"
	"github.com/Sternrassler/gallery-feed/pkg/mutation"
	"github.com/Sternrassler/gallery-feed/pkg/pagination"
	"github.com/rs/zerolog"
)

// FeedName is the root of every feed cache key.
const FeedName = "images"

// ImageService lists and creates images. *API implements it.
type ImageService interface {
	ListImages(ctx context.Context, after string) (pagination.Page[Image], error)
	CreateImage(ctx context.Context, img NewImage) (Image, error)
}

// FeedOptions configures a Feed.
type FeedOptions struct {
	// Cache is shared with other consumers when set; a new one is created otherwise
	Cache *cache.QueryCache

	// Logger defaults to the "feed" component logger
	Logger *zerolog.Logger
}

// Feed is the image feed: paginated browsing plus validated uploads that
// invalidate the cached pages once the server accepted them.
type Feed struct {
	cache   *cache.QueryCache
	coord   *fetch.Coordinator
	images  *pagination.Controller[Image]
	uploads *mutation.Coordinator[NewImage, Image]
	logger  zerolog.Logger
}

// NewFeed wires a feed on top of svc.
func NewFeed(svc ImageService, opts FeedOptions) (*Feed, error) {
	if svc == nil {
		return nil, fmt.Errorf("image service is required")
	}

	logger := logging.NewLogger("feed")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	qc := opts.Cache
	if qc == nil {
		qc = cache.NewQueryCache(logger.With().Str("layer", "query_cache").Logger())
	}
	coord := fetch.NewCoordinator(qc, logger.With().Str("layer", "fetch").Logger())

	images, err := pagination.NewController(coord, pagination.Config[Image]{
		Name:   FeedName,
		Fetch:  svc.ListImages,
		ID:     ImageID,
		Logger: &logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create feed controller: %w", err)
	}

	uploads, err := mutation.New(qc, mutation.Config[NewImage, Image]{
		Name:       "create_image",
		Write:      svc.CreateImage,
		Validate:   NewImage.Validate,
		Invalidate: cache.HasRoot(FeedName),
		Logger:     &logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create upload coordinator: %w", err)
	}

	return &Feed{
		cache:   qc,
		coord:   coord,
		images:  images,
		uploads: uploads,
		logger:  logger,
	}, nil
}

// State returns a snapshot of the feed.
func (f *Feed) State() pagination.State[Image] {
	return f.images.State()
}

// Items returns the loaded images in display order without duplicates.
func (f *Feed) Items() []Image {
	return f.images.FlatItems()
}

// HasNextPage reports whether more images can be loaded. known is false
// until the first page arrived.
func (f *Feed) HasNextPage() (has bool, known bool) {
	return f.images.HasNextPage()
}

// Stale reports whether the first page needs to be loaded again.
func (f *Feed) Stale() bool {
	return f.images.Stale()
}

// LoadFirst loads (or reloads, when stale) the first page.
func (f *Feed) LoadFirst(ctx context.Context) error {
	return f.images.LoadFirst(ctx)
}

// LoadNext appends the next page if there is one.
func (f *Feed) LoadNext(ctx context.Context) error {
	return f.images.LoadNext(ctx)
}

// Refresh invalidates all feed pages and reloads the first one.
func (f *Feed) Refresh(ctx context.Context) error {
	return f.images.Refresh(ctx)
}

// Submit validates and uploads img. It returns after the server answered;
// on success the feed pages are already stale and mutation observers have
// run.
func (f *Feed) Submit(ctx context.Context, img NewImage) (Image, error) {
	return f.uploads.Submit(ctx, img)
}

// Subscribe registers fn for every feed state change.
func (f *Feed) Subscribe(fn func(pagination.State[Image])) func() {
	return f.images.Subscribe(fn)
}

// OnMutation registers o for settled uploads.
func (f *Feed) OnMutation(o mutation.Observer[NewImage, Image]) func() {
	return f.uploads.Subscribe(o)
}

// Cache returns the feed's query cache.
func (f *Feed) Cache() *cache.QueryCache {
	return f.cache
}

// InFlight reports whether the page starting at cursor is being loaded.
// The empty cursor is the first page.
func (f *Feed) InFlight(cursor string) bool {
	if cursor == "" {
		return f.coord.InFlight(f.images.FirstKey())
	}
	return f.coord.InFlight(f.images.NextKey(cursor))
}
