package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/samvad-hq/restclient/internal/config"
	"github.com/samvad-hq/restclient/internal/domain"
	"github.com/samvad-hq/restclient/internal/logger"
	"github.com/samvad-hq/restclient/internal/metrics"
	"github.com/samvad-hq/restclient/internal/storage"
	"github.com/samvad-hq/restclient/pkg/httpclient"
	"github.com/samvad-hq/restclient/pkg/publishers"
	"github.com/samvad-hq/restclient/pkg/requests"
)

// Runner executes the request file against the dispatcher, journals every
// exchange and publishes one event per exchange. It runs once, or on a fixed
// interval until the context is cancelled.
type Runner struct {
	requests        *requests.Registry
	client          httpclient.Dispatcher
	fanout          *publishers.Fanout
	store           storage.Store
	metrics         *metrics.Recorder
	limiter         *rate.Limiter
	interval        time.Duration
	defaultTimeout  time.Duration
	metricsTextfile string
	log             logger.Logger
}

// Deps are the collaborators of a Runner. Nil fields fall back to no-op or
// default implementations.
type Deps struct {
	Requests        *requests.Registry
	Client          httpclient.Dispatcher
	Fanout          *publishers.Fanout
	Store           storage.Store
	Metrics         *metrics.Recorder
	RateLimitRPS    float64
	Interval        time.Duration
	DefaultTimeout  time.Duration
	MetricsTextfile string
	Log             logger.Logger
}

// Report summarizes one pass over the request file.
type Report struct {
	RunID     string
	Exchanges []domain.Exchange
	Counts    map[domain.Outcome]int
	Latency   metrics.Summary
}

// Failed reports how many exchanges did not succeed.
func (r Report) Failed() int {
	return len(r.Exchanges) - r.Counts[domain.OutcomeOK]
}

// New builds a Runner from explicit collaborators.
func New(d Deps) *Runner {
	limit := rate.Inf
	if d.RateLimitRPS > 0 {
		limit = rate.Limit(d.RateLimitRPS)
	}
	if d.Client == nil {
		d.Client = httpclient.NewClient()
	}
	if d.Store == nil {
		d.Store, _ = storage.NewStore("none", "", storage.Options{})
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	return &Runner{
		requests:        d.Requests,
		client:          d.Client,
		fanout:          d.Fanout,
		store:           d.Store,
		metrics:         d.Metrics,
		limiter:         rate.NewLimiter(limit, 1),
		interval:        d.Interval,
		defaultTimeout:  d.DefaultTimeout,
		metricsTextfile: d.MetricsTextfile,
		log:             logger.Ensure(d.Log),
	}
}

// NewRunner builds a runner runtime from config files.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	reqReg, err := requests.LoadFile(cfg.RequestsFile)
	if err != nil {
		return nil, fmt.Errorf("load requests file: %w", err)
	}
	ids := make([]string, 0, reqReg.Len())
	for _, e := range reqReg.Entries() {
		ids = append(ids, e.ID)
	}
	log.InfoObj("requests registry loaded", "requests_meta", map[string]any{
		"count": len(ids),
		"ids":   ids,
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := OpenJournal(cfg)
	if err != nil {
		_ = fanout.Close()
		return nil, err
	}
	log.InfoObj("journal initialized", "journal_config", map[string]any{
		"type":                     cfg.JournalType,
		"path":                     cfg.JournalPath,
		"ttl_seconds":              int(cfg.JournalTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.JournalCleanupInterval.Seconds()),
	})

	return New(Deps{
		Requests:        reqReg,
		Client:          NewClient(cfg, log),
		Fanout:          fanout,
		Store:           store,
		Metrics:         metrics.New(),
		RateLimitRPS:    cfg.RateLimitRPS,
		Interval:        cfg.RunInterval,
		DefaultTimeout:  cfg.Timeout,
		MetricsTextfile: cfg.MetricsTextfile,
		Log:             log,
	}), nil
}

// NewClient builds the dispatcher used by the runner and the CLI.
func NewClient(cfg *config.Config, log logger.Logger) *httpclient.Client {
	base := httpclient.NewRestyTransport(
		httpclient.WithUserAgent(cfg.UserAgent),
		httpclient.WithTransportLogger(log),
	)
	return httpclient.NewClient(httpclient.WithTransport(httpclient.NewLoggingTransport(base, log)))
}

// OpenJournal opens the configured exchange journal.
func OpenJournal(cfg *config.Config) (storage.Store, error) {
	store, err := storage.NewStore(cfg.JournalType, cfg.JournalPath, storage.Options{
		TTL:             cfg.JournalTTL,
		CleanupInterval: cfg.JournalCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}
	return store, nil
}

// buildFanout loads publishers. A missing publishers file means no publishers.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	path := strings.TrimSpace(cfg.PublishersFile)
	if path == "" {
		return publishers.NewFanout(nil), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.WarnObj("publishers file not found; events will not be published", "publishers_file", path)
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run executes the request file once, then on every interval tick when an
// interval is configured. A failed scheduled pass is logged, not returned.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.requests == nil {
		return fmt.Errorf("runner is not initialized")
	}

	r.log.InfoObj("runner starting", "runner_state", map[string]any{
		"requests_count":   r.requests.Len(),
		"publishers_count": r.fanout.Size(),
		"interval":         r.interval.String(),
	})

	if _, err := r.RunOnce(ctx); err != nil {
		if r.interval <= 0 || ctx.Err() != nil {
			return err
		}
		r.log.ErrorObj("initial run failed", "error", err.Error())
	}
	if r.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("runner loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.log.ErrorObj("scheduled run failed", "error", err.Error())
			}
		}
	}
}

// RunOnce performs a single pass. Request failures are reported in the
// Report; the error only carries journal, publish and cancellation failures.
func (r *Runner) RunOnce(ctx context.Context) (Report, error) {
	entries := r.requests.Entries()
	report := Report{
		RunID:     uuid.NewString(),
		Exchanges: make([]domain.Exchange, 0, len(entries)),
		Counts:    make(map[domain.Outcome]int, len(domain.Outcomes)),
	}

	start := time.Now()
	r.log.InfoObj("run started", "run_meta", map[string]any{
		"run_id":         report.RunID,
		"requests_count": len(entries),
		"started_at":     start.UTC(),
	})

	latency := metrics.NewLatency()
	var errs []error
	for _, entry := range entries {
		if err := r.limiter.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("run %s interrupted: %w", report.RunID, err))
			break
		}

		ex, err := r.runEntry(ctx, report.RunID, entry)
		report.Exchanges = append(report.Exchanges, ex)
		report.Counts[ex.Outcome]++
		latency.Record(ex.Duration)
		if err != nil {
			errs = append(errs, err)
		}
	}
	report.Latency = latency.Summary()

	if err := r.metrics.WriteTextfile(r.metricsTextfile); err != nil {
		errs = append(errs, err)
	}

	r.log.InfoObj("run completed", "run_meta", map[string]any{
		"run_id":     report.RunID,
		"counts":     report.Counts,
		"elapsed_ms": time.Since(start).Milliseconds(),
		"p95_ms":     report.Latency.P95.Milliseconds(),
	})
	return report, errors.Join(errs...)
}

func (r *Runner) runEntry(ctx context.Context, runID string, entry requests.Entry) (domain.Exchange, error) {
	spec := entry.Spec()
	if spec.Timeout <= 0 {
		spec.Timeout = r.defaultTimeout
	}

	_, ex, callErr := Dispatch(ctx, r.client, entry.Verb(), spec)
	ex.RunID = runID
	ex.RequestID = entry.ID

	level := r.log.InfoObj
	if callErr != nil {
		level = r.log.WarnObj
	}
	level("request finished", "exchange", ex)

	r.metrics.Observe(ex)

	var errs []error
	if err := r.store.Record(ex); err != nil {
		errs = append(errs, fmt.Errorf("journal %s: %w", entry.ID, err))
	}
	if _, err := r.fanout.Publish(ctx, publishers.NewEvent(runID, ex)); err != nil {
		errs = append(errs, fmt.Errorf("publish %s: %w", entry.ID, err))
	}
	return ex, errors.Join(errs...)
}

// Close releases the journal and publishers.
func (r *Runner) Close() error {
	if r == nil {
		return nil
	}
	return errors.Join(r.store.Close(), r.fanout.Close())
}
