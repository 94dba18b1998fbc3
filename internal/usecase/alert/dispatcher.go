package alert

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// Dispatcher is the alert admission gate plus channel fan-out. Its dispatch
// shape — a bounded worker pool, per-article goroutine, panic recovery,
// graceful shutdown via a WaitGroup — adapted from an article/source pair
// to a persisted Alert with per-channel result tracking.
type Dispatcher struct {
	store    repository.Store
	channels []Channel
	cfg      Config
	metrics  *Metrics
	cooldown *cooldownIndex

	queue      chan *entity.Article
	workerPool chan struct{}
	wg         sync.WaitGroup

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
	done           chan struct{}
}

// NewDispatcher constructs a Dispatcher. Call Start to begin draining its
// queue and Close for a graceful shutdown.
func NewDispatcher(store repository.Store, channels []Channel, cfg Config, metrics *Metrics) *Dispatcher {
	shutdownCtx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		store:          store,
		channels:       channels,
		cfg:            cfg,
		metrics:        metrics,
		cooldown:       newCooldownIndex(),
		queue:          make(chan *entity.Article, cfg.QueueCapacity),
		workerPool:     make(chan struct{}, cfg.MaxConcurrentDispatches),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: cancel,
		done:           make(chan struct{}),
	}
}

// Enqueue implements dedup.AlertHook: a unique article arriving from the
// dedup engine is queued for an admission decision. Backpressures the
// caller if the queue is full.
func (d *Dispatcher) Enqueue(ctx context.Context, article *entity.Article) {
	select {
	case d.queue <- article:
	case <-ctx.Done():
		slog.Warn("alert enqueue dropped: context cancelled", slog.Int64("article_id", article.ID))
	}
}

// Start launches the dispatch loop and the hourly cooldown GC.
func (d *Dispatcher) Start() {
	go d.run()
	go d.gcLoop()
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case article, ok := <-d.queue:
			if !ok {
				d.wg.Wait()
				return
			}
			d.wg.Add(1)
			go d.process(article)
		case <-d.shutdownCtx.Done():
			d.wg.Wait()
			return
		}
	}
}

func (d *Dispatcher) gcLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.cooldown.gc(24 * time.Hour)
		case <-d.shutdownCtx.Done():
			return
		}
	}
}

// process runs the admission gate and, if admitted, dispatches to every
// selected channel. Rejected articles are logged and counted, never
// persisted as alerts (spec's "rejected articles never become alerts").
func (d *Dispatcher) process(article *entity.Article) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in alert dispatch", slog.Int64("article_id", article.ID),
				slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		}
	}()

	ctx, cancel := context.WithTimeout(d.shutdownCtx, 5*time.Second)
	defer cancel()

	admitted, reason, err := d.admit(ctx, article)
	if err != nil {
		slog.Error("admission gate failed", slog.Int64("article_id", article.ID), slog.Any("error", err))
		return
	}
	if !admitted {
		slog.Debug("alert filtered", slog.Int64("article_id", article.ID), slog.String("reason", reason))
		if d.metrics != nil {
			d.metrics.RecordFiltered(reason)
		}
		return
	}

	priority := computePriority(article)
	selected := selectChannels(article, priority, d.channels)

	now := time.Now()
	a := &entity.Alert{
		ArticleID:   article.ID,
		Title:       article.Title,
		Summary:     article.Summary,
		Source:      article.Source,
		Category:    article.Category,
		Priority:    priority,
		URL:         article.URL,
		PublishedAt: article.PublishedAt,
		Entities:    article.Entities,
		Tags:        article.Tags,
		Channels:    selected,
		Status:      entity.AlertPending,
		CreatedAt:   now,
	}
	if err := d.store.PutAlert(ctx, a); err != nil {
		slog.Error("failed to persist alert", slog.Int64("article_id", article.ID), slog.Any("error", err))
		return
	}

	d.dispatch(ctx, a, selected)

	if err := d.store.MarkAlertSent(ctx, article.ID); err != nil {
		slog.Warn("failed to mark article alert_sent", slog.Int64("article_id", article.ID), slog.Any("error", err))
	}
}

// dispatch sends the alert to every selected channel concurrently, waits
// for all results (bounded by cfg.DispatchTimeout), and persists the
// terminal status.
func (d *Dispatcher) dispatch(ctx context.Context, a *entity.Alert, selected []entity.Channel) {
	if len(selected) == 0 {
		sentAt := time.Now()
		if err := d.store.UpdateAlertStatus(ctx, a.ID, entity.AlertFailed, nil, &sentAt); err != nil {
			slog.Warn("failed to update alert status", slog.Int64("alert_id", a.ID), slog.Any("error", err))
		}
		return
	}

	results := make([]entity.ChannelResult, 0, len(selected))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, ch := range d.channels {
		if !containsChannel(selected, ch.Name()) {
			continue
		}
		channel := ch
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case d.workerPool <- struct{}{}:
				defer func() { <-d.workerPool }()
			case <-time.After(2 * time.Second):
				mu.Lock()
				results = append(results, entity.ChannelResult{Channel: channel.Name(), Success: false, Error: "worker pool full"})
				mu.Unlock()
				return
			}

			sendCtx, cancel := context.WithTimeout(ctx, d.cfg.DispatchTimeout)
			defer cancel()

			start := time.Now()
			result := channel.Send(sendCtx, a)
			if d.metrics != nil {
				d.metrics.RecordDispatch(string(channel.Name()), result.Success, time.Since(start))
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}()
	}
	wg.Wait()

	status := entity.AlertFailed
	for _, r := range results {
		if r.Success {
			status = entity.AlertSent
			break
		}
	}

	sentAt := time.Now()
	if err := d.store.UpdateAlertStatus(ctx, a.ID, status, results, &sentAt); err != nil {
		slog.Warn("failed to update alert status", slog.Int64("alert_id", a.ID), slog.Any("error", err))
	}
}

func containsChannel(channels []entity.Channel, name entity.Channel) bool {
	for _, c := range channels {
		if c == name {
			return true
		}
	}
	return false
}

// Close signals shutdown and waits for in-flight dispatches to drain or the
// context to expire, matching notify.Service.Shutdown's contract.
func (d *Dispatcher) Close(ctx context.Context) error {
	close(d.queue)
	d.shutdownCancel()
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
