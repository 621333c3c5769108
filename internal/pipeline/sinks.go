package pipeline

import (
	"context"

	"github.com/floodline/hazard-etl/internal/domain"
	"github.com/floodline/hazard-etl/internal/observability"
	"github.com/floodline/hazard-etl/internal/tracker"
)

// TrackerSink folds the VTEC snapshots of each loaded product into the
// lifecycle tracker.
type TrackerSink struct {
	tracker *tracker.Tracker
	metrics *observability.Metrics
}

func NewTrackerSink(t *tracker.Tracker, metrics *observability.Metrics) *TrackerSink {
	return &TrackerSink{tracker: t, metrics: metrics}
}

func (s *TrackerSink) Name() string { return "tracker" }

func (s *TrackerSink) Persist(ctx context.Context, products []*domain.Product) error {
	for _, p := range products {
		if err := s.tracker.ApplyProduct(ctx, p); err != nil {
			return err
		}
		for _, seg := range p.Segments {
			s.metrics.TrackerApplied.Add(float64(len(seg.Vtec)))
		}
	}
	return nil
}
