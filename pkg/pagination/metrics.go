package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesAppended tracks pages added to a feed (first pages included)
	PagesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_pagination_pages_appended_total",
			Help: "Total number of pages added to a feed",
		},
		[]string{"feed"},
	)

	// DuplicatesDropped tracks items removed because their ID was already shown
	DuplicatesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_pagination_duplicates_dropped_total",
			Help: "Total number of items dropped because their ID was already present",
		},
		[]string{"feed"},
	)

	// StaleResultsDiscarded tracks results that settled under an old generation
	StaleResultsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_pagination_stale_results_discarded_total",
			Help: "Total number of page results discarded because a newer load superseded them",
		},
		[]string{"feed"},
	)

	// Transitions tracks controller state changes by target status
	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_pagination_transitions_total",
			Help: "Total number of pagination state transitions by target status",
		},
		[]string{"feed", "status"},
	)
)
