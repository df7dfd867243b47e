package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	LikesToggled   *prometheus.CounterVec
	ViewsCounted   prometheus.Counter
	FollowsToggled *prometheus.CounterVec
	PostsPublished prometheus.Counter
}

// NewMetrics registers the service counters with reg. A nil registerer
// yields working but unregistered counters.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LikesToggled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quillpost",
			Name:      "likes_toggled_total",
			Help:      "Like toggles by resulting state.",
		}, []string{"action"}),
		ViewsCounted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quillpost",
			Name:      "post_views_total",
			Help:      "Views counted against published posts.",
		}),
		FollowsToggled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quillpost",
			Name:      "follows_toggled_total",
			Help:      "Follow toggles by resulting state.",
		}, []string{"action"}),
		PostsPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quillpost",
			Name:      "posts_published_total",
			Help:      "Posts moved from draft to published.",
		}),
	}
}
