// Package bootstrap wires Identity's adapters, services, and Launcher
// runnables from environment configuration (§5, §6.5), following the same
// Config/Options/InitServersWithOptions pattern Accounts uses so the two
// components can be composed into one process sharing a single logger.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	"github.com/google/uuid"

	out "github.com/vertexpay/core/components/identity/internal/adapters/grpc/out"
	httpin "github.com/vertexpay/core/components/identity/internal/adapters/http/in"
	pgapikey "github.com/vertexpay/core/components/identity/internal/adapters/postgres/apikey"
	pgbeta "github.com/vertexpay/core/components/identity/internal/adapters/postgres/betaapplication"
	pgbusiness "github.com/vertexpay/core/components/identity/internal/adapters/postgres/business"
	pgenvironment "github.com/vertexpay/core/components/identity/internal/adapters/postgres/environment"
	pgpasswordreset "github.com/vertexpay/core/components/identity/internal/adapters/postgres/passwordreset"
	pgsession "github.com/vertexpay/core/components/identity/internal/adapters/postgres/session"
	pguser "github.com/vertexpay/core/components/identity/internal/adapters/postgres/user"
	mqadapter "github.com/vertexpay/core/components/identity/internal/adapters/rabbitmq"
	"github.com/vertexpay/core/components/identity/internal/domain/business"
	"github.com/vertexpay/core/components/identity/internal/domain/environment"
	domainpasswordreset "github.com/vertexpay/core/components/identity/internal/domain/passwordreset"
	"github.com/vertexpay/core/components/identity/internal/domain/session"
	"github.com/vertexpay/core/components/identity/internal/domain/user"
	"github.com/vertexpay/core/components/identity/internal/middleware/authextractor"
	"github.com/vertexpay/core/components/identity/internal/middleware/requestmiddleware"
	"github.com/vertexpay/core/components/identity/internal/services/apikeys"
	"github.com/vertexpay/core/components/identity/internal/services/auth"
	"github.com/vertexpay/core/components/identity/internal/services/beta"
	"github.com/vertexpay/core/components/identity/internal/services/passwordreset"
	"github.com/vertexpay/core/components/identity/internal/services/registration"
	"github.com/vertexpay/core/pkg/mlog"
	"github.com/vertexpay/core/pkg/mpostgres"
	"github.com/vertexpay/core/pkg/mrabbitmq"
	"github.com/vertexpay/core/pkg/mredis"
	"github.com/vertexpay/core/pkg/mzap"
	"github.com/vertexpay/core/pkg/nethttp"
	"github.com/vertexpay/core/pkg/ratelimit"
)

const ApplicationName = "identity"

// Config is Identity's flat, env-tagged configuration (§6.5).
type Config struct {
	EnvName  string `env:"ENV_NAME"`
	LogLevel string `env:"LOG_LEVEL"`

	ServerAddress string `env:"USERS_SERVER_ADDRESS" envDefault:":3004"`

	DatabaseURL        string `env:"USERS_DATABASE_URL"`
	DatabaseReplicaURL string `env:"USERS_DATABASE_REPLICA_URL"`
	MigrationsPath     string `env:"USERS_MIGRATIONS_PATH" envDefault:"migrations"`
	MaxOpenConns       int    `env:"USERS_DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns       int    `env:"USERS_DB_MAX_IDLE_CONNS" envDefault:"5"`

	AccountsGRPCURL            string `env:"ACCOUNTS_GRPC_URL"`
	AccountsGRPCConnectTimeout int    `env:"ACCOUNTS_GRPC_CONNECT_TIMEOUT_SECS" envDefault:"5"`
	AccountsGRPCRequestTimeout int    `env:"ACCOUNTS_GRPC_REQUEST_TIMEOUT_SECS" envDefault:"10"`

	EventBusURL      string `env:"EVENTBUS_URL"`
	EventBusExchange string `env:"EVENTBUS_EXCHANGE" envDefault:"accounts.events"`

	SessionJWTSecret string `env:"SESSION_JWT_SECRET"`
	ApiKeyHashSecret string `env:"USERS_API_KEY_HASH_SECRET"`

	AuthRateLimitWindowSeconds int    `env:"USERS_AUTH_RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
	AuthRateLimitMax           int    `env:"USERS_AUTH_RATE_LIMIT_MAX" envDefault:"10"`
	RateLimitBackend           string `env:"USERS_RATE_LIMIT_BACKEND" envDefault:"memory"`
	RedisURL                   string `env:"USERS_REDIS_URL"`

	TrustedProxyIPs       string `env:"USERS_TRUSTED_PROXY_IPS"`
	InternalServiceTokens string `env:"INTERNAL_SERVICE_TOKEN_ALLOWLIST"`

	// FrontendBaseURL is carried for the (currently stubbed) reset-link
	// emails a real Mailer would build; LoggingMailer doesn't use it.
	FrontendBaseURL string `env:"USERS_FRONTEND_BASE_URL"`
}

// Options lets callers inject a pre-built logger, avoiding a second
// initialization when composed alongside Accounts in one process.
type Options struct {
	Logger mlog.Logger
}

// InitServers loads Config from the environment and wires the service.
func InitServers() (*Service, error) {
	return InitServersWithOptions(nil)
}

// InitServersWithOptions wires Identity's adapters, domain services, and
// HTTP runnable.
func InitServersWithOptions(opts *Options) (*Service, error) {
	cfg := &Config{}

	if err := libCommons.SetConfigFromEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("load identity config: %w", err)
	}

	var logger mlog.Logger

	if opts != nil && opts.Logger != nil {
		logger = opts.Logger
	} else {
		var err error

		logger, err = mzap.InitializeLogger(mlog.ParseLevel(cfg.LogLevel), ApplicationName)
		if err != nil {
			return nil, fmt.Errorf("initialize logger: %w", err)
		}
	}

	startupID := uuid.NewString()
	logger = logger.WithFields("component", ApplicationName, "startup_id", startupID)

	pg := &mpostgres.Connection{
		ConnectionStringPrimary: cfg.DatabaseURL,
		ConnectionStringReplica: cfg.DatabaseReplicaURL,
		MigrationsPath:          cfg.MigrationsPath,
		MaxOpenConns:            cfg.MaxOpenConns,
		MaxIdleConns:            cfg.MaxIdleConns,
		Logger:                  logger,
	}

	db, err := pg.DB(context.Background())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	mq := &mrabbitmq.Connection{URL: cfg.EventBusURL, Exchange: cfg.EventBusExchange, Logger: logger}

	businesses := pgbusiness.NewRepository(db)
	environments := pgenvironment.NewRepository(db)
	users := pguser.NewRepository(db)
	sessions := pgsession.NewRepository(db)
	apiKeyRepo := pgapikey.NewRepository(db)
	resetTokens := pgpasswordreset.NewRepository(db)
	betaApplications := pgbeta.NewRepository(db)

	hashSecret := []byte(cfg.ApiKeyHashSecret)
	if len(hashSecret) == 0 {
		hashSecret = []byte(cfg.SessionJWTSecret)
	}

	accountsClient := out.New(
		cfg.AccountsGRPCURL,
		time.Duration(cfg.AccountsGRPCConnectTimeout)*time.Second,
		time.Duration(cfg.AccountsGRPCRequestTimeout)*time.Second,
	)

	publisher := &mqadapter.Publisher{Conn: mq}

	registrationService := &registration.Service{
		DB:           db,
		Businesses:   businesses,
		Environments: environments,
		Users:        users,
		Accounts:     accountsClient,
		Events:       publisher,

		NewBusinessRepo:    func(tx *sql.Tx) business.Repository { return pgbusiness.NewRepository(tx) },
		NewEnvironmentRepo: func(tx *sql.Tx) environment.Repository { return pgenvironment.NewRepository(tx) },
		NewUserRepo:        func(tx *sql.Tx) user.Repository { return pguser.NewRepository(tx) },
	}

	authService := &auth.Service{
		Secret:         []byte(cfg.SessionJWTSecret),
		Users:          users,
		Environments:   environments,
		Sessions:       sessions,
		DB:             db,
		NewSessionRepo: func(tx *sql.Tx) session.Repository { return pgsession.NewRepository(tx) },
	}

	passwordResetService := &passwordreset.Service{
		Secret:       hashSecret,
		Users:        users,
		Tokens:       resetTokens,
		Mail:         &passwordreset.LoggingMailer{},
		DB:           db,
		NewTokenRepo: func(tx *sql.Tx) domainpasswordreset.Repository { return pgpasswordreset.NewRepository(tx) },
	}

	apiKeyService := &apikeys.Service{Secret: hashSecret, ApiKeys: apiKeyRepo}

	betaService := &beta.Service{Applications: betaApplications, Notify: &beta.LoggingNotifier{}}

	authMiddleware := authextractor.Middleware(hashSecret, apiKeyRepo, users, environments)
	internalTokens := requestmiddleware.NewInternalTokenAllowlist(cfg.InternalServiceTokens)

	authRateLimiter, err := newRateLimiter(*cfg, logger)
	if err != nil {
		return nil, err
	}

	proxies := nethttp.NewTrustedProxies(cfg.TrustedProxyIPs)

	businessHandler := &httpin.BusinessHandler{Registration: registrationService}
	authHandler := &httpin.AuthHandler{Auth: authService}
	passwordResetHandler := &httpin.PasswordResetHandler{PasswordReset: passwordResetService}
	betaHandler := &httpin.BetaHandler{Beta: betaService}
	userHandler := &httpin.UserHandler{Registration: registrationService, Users: users}
	apiKeyHandler := &httpin.ApiKeyHandler{ApiKeys: apiKeyService}

	router := httpin.NewRouter(
		logger,
		authMiddleware,
		internalTokens,
		authRateLimiter,
		proxies,
		businessHandler,
		authHandler,
		passwordResetHandler,
		betaHandler,
		userHandler,
		apiKeyHandler,
	)

	return &Service{
		Config:         cfg,
		Logger:         logger,
		HTTPServer:     &HTTPServer{App: router, Address: cfg.ServerAddress},
		AccountsClient: accountsClient,
	}, nil
}

// newRateLimiter picks the auth rate limiter's backing store (§9 Open
// Question 5). "memory" (the default) is process-local; "redis" shares
// counters across replicas, same as Accounts' money-route limiter.
func newRateLimiter(cfg Config, logger mlog.Logger) (ratelimit.Limiter, error) {
	window := time.Duration(cfg.AuthRateLimitWindowSeconds) * time.Second

	if cfg.RateLimitBackend != "redis" {
		return ratelimit.New(cfg.AuthRateLimitMax, window), nil
	}

	cache := &mredis.Connection{URL: cfg.RedisURL, Logger: logger}

	client, err := cache.Client(context.Background())
	if err != nil {
		return nil, fmt.Errorf("connect redis for rate limiter: %w", err)
	}

	return ratelimit.NewRedis(client, cfg.AuthRateLimitMax, window, "users:ratelimit:auth"), nil
}
