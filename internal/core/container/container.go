package container

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	auditLogRepo "github.com/nadirsultanli/order-management-system-sub008/internal/auditlog"
	"github.com/nadirsultanli/order-management-system-sub008/internal/core/config"
	"github.com/nadirsultanli/order-management-system-sub008/internal/database"
	"github.com/nadirsultanli/order-management-system-sub008/internal/middleware"
	"github.com/nadirsultanli/order-management-system-sub008/internal/mutation"
	"github.com/nadirsultanli/order-management-system-sub008/internal/notify"
	"github.com/nadirsultanli/order-management-system-sub008/internal/querycache"
	"github.com/nadirsultanli/order-management-system-sub008/internal/rate_limiter"
	"github.com/nadirsultanli/order-management-system-sub008/internal/remote"
	"github.com/nadirsultanli/order-management-system-sub008/internal/repository"
	"github.com/nadirsultanli/order-management-system-sub008/internal/session"
	"github.com/nadirsultanli/order-management-system-sub008/internal/transfers"
	"github.com/nadirsultanli/order-management-system-sub008/internal/trucks"
	"github.com/nadirsultanli/order-management-system-sub008/internal/verification"
	"github.com/nadirsultanli/order-management-system-sub008/internal/workflow"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/auditlog"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	Version = "1.0.0"

	queryCacheTTL       = 30 * time.Second
	wizardIdleTimeout   = 30 * time.Minute
	cleanupInterval     = time.Minute
	loginAttemptLimit   = 10
	loginAttemptsWindow = time.Minute
)

type Container struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sql.DB

	Hub          *notify.Hub
	NATS         *notify.NATSPublisher
	Workflow     *workflow.Cache
	Sessions     *transfers.Sessions
	Loader       *trucks.Loader
	LoginLimiter *rate_limiter.RateLimiter
	Health       *middleware.Health

	SessionHandler  *session.SessionHandler
	TransferHandler *transfers.TransferHandler
	TruckHandler    *trucks.TruckHandler
	AuditLogHandler *auditLogRepo.AuditLogHandler
}

func NewAppContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	var persister auditlog.Persister
	var lister auditLogRepo.Lister
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		c.DB = db
		repo := auditLogRepo.NewRepository(repository.NewStore(db))
		persister = repo
		lister = repo
		logger.Info("Connected to the database successfully")
	} else {
		logger.Info("DATABASE_URL not set, audit log goes to the application log only")
	}
	auditLog := auditlog.NewAuditLog(persister, logger)

	c.Hub = notify.NewHub(logger)
	notifiers := notify.Multi{c.Hub, notify.NewLogNotifier(logger)}
	if cfg.NATSURL != "" {
		publisher, err := notify.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to connect to nats: %w", err)
		}
		c.NATS = publisher
		notifiers = append(notifiers, publisher)
	}

	// login and refresh must not go through the token transport
	authClient := remote.NewClient(remote.Options{
		BaseURL:        cfg.APIBaseURL,
		RequestTimeout: cfg.RequestTimeout,
	})
	store := session.NewStore(cfg.TokenStorePath)
	tokens := session.NewTokenSource(store, authClient, cfg.RequestTimeout, logger)

	api := remote.NewClient(remote.Options{
		BaseURL:           cfg.APIBaseURL,
		HTTPClient:        &http.Client{Transport: &oauth2.Transport{Source: tokens, Base: http.DefaultTransport}},
		ValidationTimeout: cfg.ValidationTimeout,
		MutationTimeout:   cfg.MutationTimeout,
		RequestTimeout:    cfg.RequestTimeout,
	})

	cache := querycache.New(queryCacheTTL)
	controller := mutation.NewController(cache, cfg.MutationTimeout, logger)
	pass := verification.NewPass(cfg.VerifySettleDelay, logger)
	c.Workflow = workflow.NewCache(api, logger)

	transferService := transfers.NewService(api, cache, c.Workflow, notifiers, auditLog, logger)
	c.Sessions = transfers.NewSessions(api, transferService, wizardIdleTimeout, logger)
	c.Loader = trucks.NewLoader(api, cache, controller, pass, notifiers, auditLog, logger)

	c.LoginLimiter = rate_limiter.NewRateLimiter(loginAttemptLimit, loginAttemptsWindow)
	c.Health = middleware.NewHealth(Version, c.Hub.Clients, c.Sessions.Len)

	c.SessionHandler = session.NewHandler(session.NewManager(store, authClient, logger), logger)
	c.TransferHandler = transfers.NewHandler(transferService, c.Sessions, logger)
	c.TruckHandler = trucks.NewHandler(c.Loader, logger)
	c.AuditLogHandler = auditLogRepo.NewHandler(lister, logger)

	return c, nil
}

// Start launches background work bound to ctx.
func (c *Container) Start(ctx context.Context) {
	if err := c.Workflow.Init(ctx); err != nil {
		c.Logger.Warn("Transfer workflow unavailable, using built-in defaults", zap.Error(err))
	}

	go c.Sessions.CleanupLoop(ctx, cleanupInterval)
	go c.LoginLimiter.CleanupLoop(ctx, cleanupInterval)
}

// Drain waits for background verification passes, bounded by ctx, so their
// notifications still have a live publisher.
func (c *Container) Drain(ctx context.Context) {
	if c.Loader == nil {
		return
	}
	if err := c.Loader.WaitContext(ctx); err != nil {
		c.Logger.Warn("Verification passes still running at shutdown", zap.Error(err))
	}
}

func (c *Container) Close() {
	if c.NATS != nil {
		if err := c.NATS.Close(); err != nil {
			c.Logger.Warn("Unable to close nats connection", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("Unable to close database", zap.Error(err))
		}
	}
}
