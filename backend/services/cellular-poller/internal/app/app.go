package app

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	libdb "cellmon/backend/libs/db"
	libredis "cellmon/backend/libs/redis"
	"cellmon/backend/libs/sshexec"
	"cellmon/backend/services/cellular-poller/internal/config"
	"cellmon/backend/services/cellular-poller/internal/db"
	httpserver "cellmon/backend/services/cellular-poller/internal/http"
	"cellmon/backend/services/cellular-poller/internal/http/handlers"
	"cellmon/backend/services/cellular-poller/internal/metrics"
	redisstore "cellmon/backend/services/cellular-poller/internal/redis"
	"cellmon/backend/services/cellular-poller/internal/remote"
	"cellmon/backend/services/cellular-poller/internal/service"
)

// App wires cellular poller dependencies.
type App struct {
	supervisor  *service.Supervisor
	server      *httpserver.Server
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph. Nothing here needs the router or the database to be
// reachable; the supervisor connects once Run is called.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	hostKey, err := cfg.Router.PublicKey()
	if err != nil {
		return nil, err
	}

	recorder := metrics.New()
	a := &App{logger: logger}

	var publishers []service.SamplePublisher
	if cfg.Redis.Addr != "" {
		client, err := libredis.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("redis unavailable, latest-sample mirror disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			a.redisClient = client
			publishers = append(publishers, redisstore.NewStore(client, cfg.Router.Host, cfg.RedisTTL()))
		}
	}

	poller, err := service.NewPoller(service.PollerConfig{
		Interval:   cfg.Poll.Interval,
		Devices:    cfg.Router.Devices,
		Publishers: publishers,
		Recorder:   recorder,
	}, logger.Named("poller"))
	if err != nil {
		a.Close()
		return nil, err
	}

	dialer := remote.NewSSHDialer(sshexec.Config{
		Host:           cfg.Router.Host,
		User:           cfg.Router.User,
		Password:       cfg.Router.Password,
		HostKey:        hostKey,
		DialTimeout:    cfg.Router.DialTimeout,
		CommandTimeout: cfg.Router.CommandTimeout,
		Logger:         logger.Named("ssh"),
	})
	opener := db.NewOpener(cfg.Database.URL, cfg.Database.Table, libdb.Options{}, logger.Named("repository"))

	a.supervisor, err = service.NewSupervisor(service.SupervisorConfig{
		Storage:    opener,
		Remote:     dialer,
		Poller:     poller,
		Interval:   cfg.Poll.Interval,
		Hypertable: cfg.Database.Hypertables,
		Recorder:   recorder,
	}, logger.Named("supervisor"))
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.HTTP.Addr != "" {
		routes := httpserver.Routes{
			Health:  handlers.NewHealthHandler(a.supervisor),
			Metrics: recorder.Handler(),
		}
		a.server = httpserver.NewServer(cfg.HTTP.Addr, httpserver.NewRouter(routes), logger.Named("http"))
	}

	return a, nil
}

// Run polls until ctx is cancelled. The HTTP surface, when enabled, runs alongside; if it
// cannot be served the poller keeps going without it.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.supervisor.Run(ctx)
	})
	if a.server != nil {
		g.Go(func() error {
			if err := a.server.Run(ctx); err != nil {
				a.logger.Error("http server failed, health and metrics disabled", zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
