package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/floodline/hazard-etl/internal/config"
	"github.com/floodline/hazard-etl/internal/decode"
	"github.com/floodline/hazard-etl/internal/domain"
	"github.com/floodline/hazard-etl/internal/observability"
)

// BulletinDecoder implements Decoder: it cuts a raw feed message into
// framed bulletins and decodes each into a product.
type BulletinDecoder struct {
	clock    clockwork.Clock
	strict   bool
	skipTest bool
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewDecoder builds the decode stage from config. Pass a fake clock in
// tests to pin DecodedAt.
func NewDecoder(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *BulletinDecoder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &BulletinDecoder{
		clock:    clock,
		strict:   cfg.StrictDecode,
		skipTest: cfg.SkipTestProducts,
		timeout:  cfg.DecodeTimeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// DecodeFeed decodes every bulletin in one feed message. Per-bulletin
// failures (strict-mode defects, deadline overruns) are logged and counted
// but do not fail the message; the remaining bulletins still decode. The
// raw bulletins are returned alongside for archival.
func (d *BulletinDecoder) DecodeFeed(ctx context.Context, raw domain.RawEvent) ([]*domain.Product, []domain.RawBulletin, error) {
	bulletins, err := decode.SplitFeed(bytes.NewReader(raw.Value))
	if err != nil {
		return nil, nil, fmt.Errorf("split feed: %w", err)
	}
	d.metrics.BulletinsConsumed.Add(float64(len(bulletins)))

	products := make([]*domain.Product, 0, len(bulletins))
	for i := range bulletins {
		bulletins[i].IngestID = uuid.NewString()

		p, err := d.decodeOne(ctx, bulletins[i], raw.Timestamp)
		if err != nil {
			d.metrics.DecodeFailures.Inc()
			d.logger.Warn("bulletin rejected",
				"error", err,
				"ingest_id", bulletins[i].IngestID,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			continue
		}

		for _, diag := range p.Diagnostics {
			d.metrics.DecodeDiagnostics.WithLabelValues(string(diag.Kind), string(diag.Severity)).Inc()
		}

		if p.Test && d.skipTest {
			d.logger.Debug("test product skipped", "product_id", p.ID, "awips", p.AWIPS.Category+p.AWIPS.Office)
			continue
		}
		products = append(products, p)
	}
	return products, bulletins, nil
}

// decodeOne runs the assembler under the per-product deadline. Decoding is
// pure CPU work, so the deadline is enforced by racing it against the
// context rather than plumbing cancellation through the decoder.
func (d *BulletinDecoder) decodeOne(ctx context.Context, b domain.RawBulletin, ingested time.Time) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	rz := domain.TimeResolver{}
	if !ingested.IsZero() {
		rz = domain.NewTimeResolver(ingested.UTC())
	}

	type result struct {
		p   *domain.Product
		err error
	}
	ch := make(chan result, 1)
	start := time.Now()
	go func() {
		p, err := decode.DecodeProduct(b, decode.Options{
			Strict:   d.strict,
			Resolver: rz,
			Clock:    d.clock,
		})
		ch <- result{p, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("decode deadline exceeded: %w", ctx.Err())
	case r := <-ch:
		d.metrics.DecodeDuration.Observe(time.Since(start).Seconds())
		return r.p, r.err
	}
}

// EncodeProducts serializes decoded products for the sink topic. The key
// is the deterministic product ID so replays land on the same partition.
func EncodeProducts(products []*domain.Product) ([]domain.OutputEvent, error) {
	out := make([]domain.OutputEvent, 0, len(products))
	for _, p := range products {
		value, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal product %s: %w", p.ID, err)
		}
		out = append(out, domain.OutputEvent{
			Key:   []byte(p.ID),
			Value: value,
			Headers: map[string]string{
				"awips":      p.AWIPS.Category + p.AWIPS.Office,
				"office":     p.WMO.Office,
				"decoded_at": p.DecodedAt.Format(time.RFC3339),
			},
		})
	}
	return out, nil
}
