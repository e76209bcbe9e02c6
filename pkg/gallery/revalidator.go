package gallery

import (
	"context"
	"time"

	"github.com/Sternrassler/gallery-feed/pkg/mutation"
	"github.com/Sternrassler/gallery-feed/pkg/pagination"
	"github.com/rs/zerolog"
)

// DefaultRevalidateInterval is how often a Revalidator checks the feed.
const DefaultRevalidateInterval = 2 * time.Second

// Revalidator reloads the first page of a feed in the background whenever it
// became stale, so uploads show up without user action.
type Revalidator struct {
	feed     *Feed
	interval time.Duration
	poke     chan struct{}
	logger   zerolog.Logger
}

// NewRevalidator creates a revalidator for feed. A non-positive interval
// uses DefaultRevalidateInterval.
func NewRevalidator(feed *Feed, interval time.Duration) *Revalidator {
	if interval <= 0 {
		interval = DefaultRevalidateInterval
	}
	return &Revalidator{
		feed:     feed,
		interval: interval,
		poke:     make(chan struct{}, 1),
		logger:   feed.logger.With().Str("layer", "revalidator").Logger(),
	}
}

// Start launches the background loop and returns immediately. The loop
// checks at a fixed cadence and right after every successful upload. It
// stops when ctx ends.
func (r *Revalidator) Start(ctx context.Context) {
	unsubscribe := r.feed.OnMutation(mutation.Observer[NewImage, Image]{
		OnSuccess: func(NewImage, Image) { r.Trigger() },
	})

	go func() {
		defer unsubscribe()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case <-r.poke:
			}
			r.Revalidate(ctx)
		}
	}()
}

// Trigger asks the loop to check now. It never blocks.
func (r *Revalidator) Trigger() {
	select {
	case r.poke <- struct{}{}:
	default:
	}
}

// Revalidate reloads the first page if the feed is showing pages that were
// invalidated. It reports whether a reload was attempted.
func (r *Revalidator) Revalidate(ctx context.Context) (bool, error) {
	st := r.feed.State()
	if st.Status != pagination.StatusReady || !r.feed.Stale() {
		return false, nil
	}

	r.logger.Debug().Msg("Feed stale, reloading first page")
	if err := r.feed.LoadFirst(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("Background reload failed")
		return true, err
	}
	return true, nil
}
