package mutation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submissions tracks submitted mutations by result (success, failure, invalid)
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_mutation_submissions_total",
			Help: "Total number of mutation submissions by result",
		},
		[]string{"mutation", "result"},
	)

	// InvalidatedEntries tracks cache entries marked stale after successful writes
	InvalidatedEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_mutation_invalidated_entries_total",
			Help: "Total number of query cache entries invalidated by successful mutations",
		},
		[]string{"mutation"},
	)
)
