package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/authzkit/migrations"
	"github.com/dmitrymomot/authzkit/modules/accounts"
	"github.com/dmitrymomot/authzkit/modules/directory"
	"github.com/dmitrymomot/authzkit/modules/tenants"
	"github.com/dmitrymomot/authzkit/pkg/authtoken"
	"github.com/dmitrymomot/authzkit/pkg/authz"
	"github.com/dmitrymomot/authzkit/pkg/config"
	"github.com/dmitrymomot/authzkit/pkg/httpserver"
	"github.com/dmitrymomot/authzkit/pkg/logger"
	"github.com/dmitrymomot/authzkit/pkg/pg"
	"github.com/dmitrymomot/authzkit/pkg/redis"
	"github.com/dmitrymomot/authzkit/pkg/requestid"
	"github.com/dmitrymomot/authzkit/pkg/tenant"
)

type appConfig struct {
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	HTTP  httpserver.Config
	PG    pg.Config
	Redis redis.Config

	TokenSigningKey string        `env:"TOKEN_SIGNING_KEY,required"`
	TokenValidity   time.Duration `env:"TOKEN_VALIDITY" envDefault:"12h"`

	// CacheDriver selects the tenant descriptor cache: memory or redis.
	CacheDriver string        `env:"TENANT_CACHE_DRIVER" envDefault:"memory"`
	CacheTTL    time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`

	BootstrapFile string `env:"BOOTSTRAP_FILE" envDefault:"bootstrap.yml"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithLevel(parseLevel(cfg.LogLevel)),
		logger.WithEnvironment(cfg.AppEnv, "authzkit"),
		logger.WithContextExtractors(requestid.LogExtractor(), tenant.LogExtractor()),
	)
	logger.SetAsDefault(log)

	ctx := context.Background()

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorContext(ctx, "service stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Control schema first: the registry set, then the directory set so the
	// control schema doubles as the superuser tenant.
	if err := pg.CreateSchema(ctx, pool, tenant.ControlSchema); err != nil {
		return err
	}
	if err := pg.MigrateSchemaTable(ctx, pool, tenant.ControlSchema, migrations.ControlVersionTable, migrations.Control(), log); err != nil {
		return err
	}
	if err := pg.MigrateSchema(ctx, pool, tenant.ControlSchema, migrations.Tenant(), log); err != nil {
		return err
	}

	if cfg.BootstrapFile != "" {
		bootstrap, err := accounts.LoadBootstrap(cfg.BootstrapFile)
		switch {
		case os.IsNotExist(err):
			log.WarnContext(ctx, "bootstrap file not found, skipping", "path", cfg.BootstrapFile)
		case err != nil:
			return err
		default:
			if err := bootstrap.Apply(ctx, pool, log); err != nil {
				return err
			}
		}
	}

	cache, err := buildCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	tokens, err := authtoken.New([]byte(cfg.TokenSigningKey), authtoken.WithValidity(cfg.TokenValidity))
	if err != nil {
		return err
	}

	registry := tenants.NewStorage(pool)
	schemas := tenants.NewSchemaManager(pool, migrations.Tenant(), log)
	provisioner := tenants.NewProvisioner(registry, schemas, cache, log)
	tenantSvc := tenants.NewService(provisioner, registry, log)

	connRouter := pg.NewRouter(pool)
	catalog := directory.NewStorage(connRouter)
	catalogSvc := directory.NewService(catalog, log)

	acctStorage := accounts.NewStorage(connRouter)
	authSvc := accounts.NewService(acctStorage, catalog, tokens, log)
	suAuthSvc := accounts.NewService(acctStorage, catalog, tokens, log, accounts.AsSuperuser())

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(tenant.Router(registry,
		tenant.WithCache(cache),
		tenant.WithCacheTTL(cfg.CacheTTL),
		tenant.WithTokenInspector(tokenInspector(tokens)),
	))
	r.Use(authz.Middleware(tokens))

	r.Get("/health", httpserver.HealthCheckHandler(ctx, log, pg.Healthcheck(pool)))
	// The lifecycle routes live on the routing whitelist, so the Guard table
	// is what keeps them superuser-only: any method or path it does not list
	// fails closed.
	r.Mount("/tenants", authz.Guard(tenants.Requirements("/tenants"))(tenantSvc.Handle()))
	r.Mount("/auth", authSvc.Handle())
	r.Mount("/su/auth", suAuthSvc.Handle())
	r.Mount("/", catalogSvc.Handle())

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}

// tokenInspector adapts token verification for the routing middleware.
// Routing only needs to know whether a valid token is present and what it
// binds to; a bad token here is the same as no token, the authorization
// middleware rejects it properly later.
func tokenInspector(tokens *authtoken.Service) tenant.TokenInspector {
	return func(r *http.Request) (tenant.TokenInfo, bool) {
		raw, err := authtoken.FromRequest(r)
		if err != nil {
			return tenant.TokenInfo{}, false
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			return tenant.TokenInfo{}, false
		}
		return tenant.TokenInfo{Superuser: claims.Superuser, TenantID: claims.TenantID}, true
	}
}

func buildCache(ctx context.Context, cfg appConfig) (tenant.Cache, error) {
	switch cfg.CacheDriver {
	case "redis":
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return tenant.NewRedisCache(client, "tenant"), nil
	case "none":
		return tenant.NewNoOpCache(), nil
	default:
		return tenant.NewInMemoryCache(), nil
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
