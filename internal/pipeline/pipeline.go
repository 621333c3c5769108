// Package pipeline orchestrates the extract-decode-load loop: raw feed
// messages in from Kafka, decoded hazard products out, with lifecycle
// tracking and archival fanned out behind the main path.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/floodline/hazard-etl/internal/domain"
	"github.com/floodline/hazard-etl/internal/observability"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Decoder turns one feed message into decoded products plus the raw
// bulletins they came from.
type Decoder interface {
	DecodeFeed(ctx context.Context, raw domain.RawEvent) ([]*domain.Product, []domain.RawBulletin, error)
}

// BatchLoader writes output events to the sink topic.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// ProductSink receives decoded products after they are loaded. Sink
// failures are logged, not fatal: the sink topic is the system of record
// and the sinks are derived views.
type ProductSink interface {
	Name() string
	Persist(ctx context.Context, products []*domain.Product) error
}

// BulletinArchiver receives the raw bulletins of each batch for cold
// storage.
type BulletinArchiver interface {
	Archive(ctx context.Context, bulletins []domain.RawBulletin) error
}

// Pipeline orchestrates the batch extract-decode-load loop.
type Pipeline struct {
	extractor BatchExtractor
	decoder   Decoder
	loader    BatchLoader
	sinks     []ProductSink
	archiver  BulletinArchiver

	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
	workers   int
}

// New creates a Pipeline with the given stages and observability. Sinks
// and archiver are optional.
func New(e BatchExtractor, d Decoder, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		extractor: e,
		decoder:   d,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
		workers:   workers,
	}
}

// AddSink registers a derived-view sink (lifecycle tracker, product store).
func (p *Pipeline) AddSink(s ProductSink) { p.sinks = append(p.sinks, s) }

// SetArchiver registers the raw bulletin archiver.
func (p *Pipeline) SetArchiver(a BulletinArchiver) { p.archiver = a }

// CheckReadiness returns nil if the pipeline has processed at least one
// message, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize, "decode_workers", p.workers)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-decode-load cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	results := p.decodeBatch(ctx, rawBatch)

	loaded, ok := p.loadResults(ctx, rawBatch, results, backoff, maxBackoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// decoded is the outcome of decoding one feed message.
type decoded struct {
	products  []*domain.Product
	bulletins []domain.RawBulletin
	err       error
}

// decodeBatch decodes the batch across the worker pool. Results keep the
// batch order so offsets commit in order.
func (p *Pipeline) decodeBatch(ctx context.Context, rawBatch []domain.RawEvent) []decoded {
	results := make([]decoded, len(rawBatch))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				products, bulletins, err := p.decoder.DecodeFeed(ctx, rawBatch[i])
				results[i] = decoded{products: products, bulletins: bulletins, err: err}
			}
		}()
	}
	for i := range rawBatch {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// loadResults encodes and loads the decoded products, fans out to the
// sinks, and commits offsets. Returns the number of loaded products and
// false if the pipeline should stop.
func (p *Pipeline) loadResults(ctx context.Context, rawBatch []domain.RawEvent, results []decoded, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	var products []*domain.Product
	var bulletins []domain.RawBulletin
	successfulRaws := make([]domain.RawEvent, 0, len(rawBatch))

	for i, res := range results {
		if res.err != nil {
			p.logger.Warn("decode failed, skipping message",
				"error", res.err,
				"topic", rawBatch[i].Topic,
				"partition", rawBatch[i].Partition,
				"offset", rawBatch[i].Offset,
			)
			p.metrics.DecodeFailures.Inc()
			p.commitOffset(ctx, rawBatch[i])
			continue
		}
		products = append(products, res.products...)
		bulletins = append(bulletins, res.bulletins...)
		successfulRaws = append(successfulRaws, rawBatch[i])
	}

	if len(products) > 0 {
		outBatch, err := EncodeProducts(products)
		if err != nil {
			// Marshal failure is a bug, not transient input; skip the batch.
			p.logger.Error("encode batch failed", "error", err)
			outBatch = nil
		}
		if len(outBatch) > 0 {
			if err := p.loader.LoadBatch(ctx, outBatch); err != nil {
				p.logger.Error("load batch failed", "error", err, "batch_size", len(outBatch))
				return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
			}
			p.metrics.ProductsProduced.Add(float64(len(outBatch)))
		}

		for _, sink := range p.sinks {
			if err := sink.Persist(ctx, products); err != nil {
				p.logger.Error("product sink failed", "sink", sink.Name(), "error", err)
			}
		}
	}

	if p.archiver != nil && len(bulletins) > 0 {
		if err := p.archiver.Archive(ctx, bulletins); err != nil {
			p.logger.Error("bulletin archive failed", "error", err)
		}
	}

	for _, raw := range successfulRaws {
		p.commitOffset(ctx, raw)
	}

	return len(products), true
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the pipeline should
// stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
