// Package bootstrap builds the record store, id allocator, notifier and
// search mirror from configuration, for the intake API and the worker manager.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"lead-intake/internal/common/aws"
	"lead-intake/internal/common/camunda"
	"lead-intake/internal/common/config"
	"lead-intake/internal/common/database"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/feed"
	"lead-intake/internal/idgen"
	"lead-intake/internal/intake"
	"lead-intake/internal/notify"
	"lead-intake/internal/searchindex"
	"lead-intake/internal/source"
	"lead-intake/internal/store"
	"lead-intake/internal/workflow"
)

// Deps are the backends of one process. Close releases whatever was opened.
type Deps struct {
	Config   *config.Config
	Store    store.Store
	IDs      idgen.Allocator
	Notifier notify.Notifier
	Index    searchindex.Indexer
	Sources  *source.Policy
	// Pingers are the configured backends readiness depends on.
	Pingers []database.Pinger

	closers []func() error
	logger  logger.Logger
}

type Option func(*options)

type options struct {
	starter notify.ProcessStarter
}

// WithProcessStarter reuses an existing Zeebe connection for camunda-mode
// notifications instead of opening a second one.
func WithProcessStarter(s notify.ProcessStarter) Option {
	return func(o *options) { o.starter = s }
}

func Build(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Deps, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	d := &Deps{
		Config:  cfg,
		Sources: source.NewPolicy(cfg.Sources),
		Index:   searchindex.Nop{},
		logger:  log.WithFields(map[string]interface{}{"component": "bootstrap"}),
	}

	steps := []func(context.Context, *options) error{
		d.openStore,
		d.openAllocator,
		d.openIndex,
		d.openNotifier,
	}
	for _, step := range steps {
		if err := step(ctx, &o); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

func (d *Deps) openStore(ctx context.Context, _ *options) error {
	cfg := d.Config
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		d.logger.Warn("using in-memory store; records are lost on restart", nil)
		d.Store = store.NewMemoryStore()
		return nil

	case config.StoreDriverPostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, pg.Close)

		err = RetryWithBackoff(ctx, func() error { return pg.Ping(ctx) }, 5, 2*time.Second, d.logger, "postgres connection")
		if err != nil {
			return err
		}
		if cfg.Database.Postgres.AutoMigrate {
			if err := store.Migrate(ctx, pg.DB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			d.logger.Info("database schema up to date", nil)
		}

		d.Store = store.NewPostgresStore(pg.DB, d.logger)
		d.Pingers = append(d.Pingers, pg)
		return nil

	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (d *Deps) openAllocator(ctx context.Context, _ *options) error {
	cfg := d.Config
	switch cfg.IDs.Allocator {
	case config.IDAllocatorULID:
		d.IDs = idgen.NewULIDAllocator()
		return nil

	case config.IDAllocatorRedis:
		rdb := database.NewRedis(cfg.Database.Redis)
		d.closers = append(d.closers, rdb.Close)
		err := RetryWithBackoff(ctx, func() error { return rdb.Ping(ctx) }, 5, 2*time.Second, d.logger, "redis connection")
		if err != nil {
			return err
		}
		d.IDs = idgen.NewRedisAllocator(rdb.Client, cfg.IDs.KeyPrefix, idgen.WithLogger(d.logger))
		d.Pingers = append(d.Pingers, rdb)
		return nil

	default:
		return fmt.Errorf("unknown id allocator %q", cfg.IDs.Allocator)
	}
}

func (d *Deps) openIndex(ctx context.Context, _ *options) error {
	cfg := d.Config
	if !cfg.Search.Enabled {
		return nil
	}
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return err
	}
	// The mirror is best effort, so an unreachable cluster only warns.
	if err := es.Ping(ctx); err != nil {
		d.logger.Warn("elasticsearch unreachable at startup", map[string]interface{}{"error": err})
	}
	d.Index = searchindex.NewElasticsearch(es.Client, cfg.Search.Index, d.logger)
	return nil
}

func (d *Deps) openNotifier(ctx context.Context, o *options) error {
	cfg := d.Config
	switch cfg.Notifications.Mode {
	case config.NotificationModeDisabled:
		d.Notifier = notify.Nop{}
		return nil

	case config.NotificationModeDirect:
		direct, err := NewDirect(ctx, cfg, d.logger)
		if err != nil {
			return err
		}
		d.Notifier = direct
		return nil

	case config.NotificationModeCamunda:
		starter := o.starter
		if starter == nil {
			var zc *camunda.Client
			err := RetryWithBackoff(ctx, func() error {
				var err error
				zc, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
					GatewayAddress:         cfg.Camunda.BrokerAddress,
					UsePlaintextConnection: true,
					ConnectionTimeout:      config.GetDuration(cfg.Camunda.Timeout),
					RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
				})
				return err
			}, 5, 2*time.Second, d.logger, "zeebe connection")
			if err != nil {
				return err
			}
			d.closers = append(d.closers, zc.Close)
			d.Pingers = append(d.Pingers, zc)
			starter = zc
		}
		d.Notifier = notify.NewProcessDispatcher(starter, cfg.Notifications.ProcessID, d.logger)
		return nil

	default:
		return fmt.Errorf("unknown notification mode %q", cfg.Notifications.Mode)
	}
}

// NewDirect builds the in-process notifier over SES and SNS. Disabled
// channels get no sink.
func NewDirect(ctx context.Context, cfg *config.Config, log logger.Logger) (*notify.Direct, error) {
	nc := cfg.Notifications
	dc := notify.DirectConfig{PlaceholderDomains: nc.PlaceholderDomains}

	if nc.Email.Enabled || nc.SMS.Enabled {
		clients, err := aws.NewClients(ctx, nc.AWS.Region)
		if err != nil {
			return nil, err
		}
		if nc.Email.Enabled {
			dc.Email = notify.NewSESSink(clients.SES, nc.Email.FromEmail)
		}
		if nc.SMS.Enabled {
			dc.SMS = notify.NewSNSSink(clients.SNS, nc.SMS.SenderID)
		}
	}
	return notify.NewDirect(dc, log), nil
}

// IntakeService wires the submission pipeline onto the opened backends.
func (d *Deps) IntakeService(log logger.Logger) *intake.Service {
	opts := []intake.Option{
		intake.WithNotifier(d.Notifier),
		intake.WithIndexer(d.Index),
		intake.WithSourcePolicy(d.Sources),
	}
	if d.Config.Notifications.Async {
		opts = append(opts, intake.WithAsyncSideEffects(config.GetDuration(d.Config.Notifications.Timeout)))
	}
	return intake.NewService(d.Store, d.IDs, log, opts...)
}

func (d *Deps) Workflow(log logger.Logger) *workflow.Engine {
	return workflow.NewEngine(d.Store, log,
		workflow.WithNotifier(d.Notifier),
		workflow.WithIndexer(d.Index),
	)
}

func (d *Deps) Feed(log logger.Logger) *feed.Aggregator {
	return feed.NewAggregator(d.Store, d.Config.Feed, log)
}

// Close releases backends in reverse order of opening.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.logger.Warn("close failed", map[string]interface{}{"error": err})
		}
	}
	d.closers = nil
}

// RetryWithBackoff runs operation up to maxRetries times, doubling the delay
// between attempts.
func RetryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if i == maxRetries-1 {
			break
		}

		log.Warn(operationName+" failed, retrying", map[string]interface{}{
			"error":       err,
			"attempt":     i + 1,
			"maxRetries":  maxRetries,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
