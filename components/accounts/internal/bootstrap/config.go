// Package bootstrap wires the Accounts service's adapters, services, and
// Launcher runnables from environment configuration (§5, §6.5), following
// the reference repo's Config/Options/InitServersWithOptions pattern so
// callers (tests, the unified binary) can inject a logger instead of always
// hitting the real environment.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	"github.com/google/uuid"

	httpin "github.com/vertexpay/core/components/accounts/internal/adapters/http/in"
	rpcin "github.com/vertexpay/core/components/accounts/internal/adapters/grpc/in"
	pgaccount "github.com/vertexpay/core/components/accounts/internal/adapters/postgres/account"
	pgtransaction "github.com/vertexpay/core/components/accounts/internal/adapters/postgres/transaction"
	mqadapter "github.com/vertexpay/core/components/accounts/internal/adapters/rabbitmq"
	cacheadapter "github.com/vertexpay/core/components/accounts/internal/adapters/redis"
	"github.com/vertexpay/core/components/accounts/internal/ledgerclient"
	"github.com/vertexpay/core/components/accounts/internal/services/accountnumber"
	"github.com/vertexpay/core/components/accounts/internal/services/idempotency"
	"github.com/vertexpay/core/components/accounts/internal/services/moneymovement"
	"github.com/vertexpay/core/components/accounts/internal/services/retryworker"
	"github.com/vertexpay/core/pkg/mlog"
	"github.com/vertexpay/core/pkg/mpostgres"
	"github.com/vertexpay/core/pkg/mrabbitmq"
	"github.com/vertexpay/core/pkg/mredis"
	"github.com/vertexpay/core/pkg/mzap"
	"github.com/vertexpay/core/pkg/nethttp"
	"github.com/vertexpay/core/pkg/ratelimit"
	"github.com/vertexpay/core/pkg/sessionauth"
)

const ApplicationName = "accounts"

// Config is the Accounts service's flat, env-tagged configuration (§6.5).
type Config struct {
	EnvName  string `env:"ENV_NAME"`
	LogLevel string `env:"LOG_LEVEL"`

	ServerAddress string `env:"SERVER_ADDRESS" envDefault:":3003"`
	GRPCAddress   string `env:"GRPC_PORT" envDefault:":50053"`

	DatabaseURL        string `env:"DATABASE_URL"`
	DatabaseReplicaURL string `env:"DATABASE_REPLICA_URL"`
	MigrationsPath     string `env:"MIGRATIONS_PATH" envDefault:"migrations"`
	MaxOpenConns       int    `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns       int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`

	LedgerGRPCURL        string `env:"LEDGER_GRPC_URL"`
	LedgerGRPCTimeoutSec int    `env:"LEDGER_GRPC_TIMEOUT_SECS" envDefault:"10"`

	EventBusURL      string `env:"EVENTBUS_URL"`
	EventBusExchange string `env:"EVENTBUS_EXCHANGE" envDefault:"accounts.events"`

	RedisURL string `env:"REDIS_URL"`

	AccountNumberLength int `env:"ACCOUNT_NUMBER_LENGTH" envDefault:"12"`

	MoneyRateLimitWindowSeconds int    `env:"ACCOUNTS_MONEY_RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
	MoneyRateLimitMax           int    `env:"ACCOUNTS_MONEY_RATE_LIMIT_MAX" envDefault:"20"`
	RateLimitBackend            string `env:"ACCOUNTS_RATE_LIMIT_BACKEND" envDefault:"memory"`

	TrustedProxyIPs string `env:"ACCOUNTS_TRUSTED_PROXY_IPS"`

	SessionJWTSecret string `env:"SESSION_JWT_SECRET"`
}

// Options lets callers inject a pre-built logger, avoiding a second
// initialization when composed alongside Identity in one process.
type Options struct {
	Logger mlog.Logger
}

// InitServers loads Config from the environment and wires the service.
func InitServers() (*Service, error) {
	return InitServersWithOptions(nil)
}

// InitServersWithOptions wires the Accounts service's adapters, domain
// services, and HTTP/gRPC/background runnables.
func InitServersWithOptions(opts *Options) (*Service, error) {
	cfg := &Config{}

	if err := libCommons.SetConfigFromEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("load accounts config: %w", err)
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
	cache := &mredis.Connection{URL: cfg.RedisURL, Logger: logger}

	accountRepo := cacheadapter.NewCachedRepository(pgaccount.NewRepository(db), cache)
	transactionRepo := pgtransaction.NewRepository(db)

	generator := accountnumber.NewGenerator(cfg.AccountNumberLength, accountRepo)

	ledgerTimeout := time.Duration(cfg.LedgerGRPCTimeoutSec) * time.Second
	ledger := ledgerclient.New(cfg.LedgerGRPCURL, 5*time.Second, ledgerTimeout)

	moneyMovement := &moneymovement.Service{
		Accounts:    accountRepo,
		Idempotency: &idempotency.Engine{Repo: transactionRepo},
		Ledger:      ledger,
	}

	worker := retryworker.New(transactionRepo, accountRepo, ledger)

	publisher := &mqadapter.Publisher{Conn: mq}
	consumer := &mqadapter.Consumer{Conn: mq, Accounts: accountRepo, Generator: generator, Publisher: publisher}

	accountHandler := &httpin.AccountHandler{Accounts: accountRepo, Generator: generator}
	transactionHandler := &httpin.TransactionHandler{MoneyMovement: moneyMovement, Transactions: transactionRepo}

	authMiddleware := sessionauth.Middleware([]byte(cfg.SessionJWTSecret))

	moneyLimiter, err := newRateLimiter(*cfg, cache)
	if err != nil {
		return nil, err
	}

	proxies := nethttp.NewTrustedProxies(cfg.TrustedProxyIPs)

	router := httpin.NewRouter(logger, authMiddleware, moneyLimiter, proxies, accountHandler, transactionHandler)

	grpcServer := &rpcin.Server{Accounts: accountRepo, Generator: generator}

	return &Service{
		Config:     cfg,
		Logger:     logger,
		HTTPServer: &HTTPServer{App: router, Address: cfg.ServerAddress},
		GRPCServer: &GRPCServer{Desc: grpcServer.ServiceDesc(), Impl: grpcServer, Address: cfg.GRPCAddress},
		Worker:     worker,
		Consumer:   consumer,
	}, nil
}

// newRateLimiter picks the rate limiter's backing store (§9 Open Question
// 5). "memory" (the default) is process-local and fine for a single
// replica; "redis" shares counters across replicas through the same
// connection used for the account cache-aside reads.
func newRateLimiter(cfg Config, cache *mredis.Connection) (ratelimit.Limiter, error) {
	window := time.Duration(cfg.MoneyRateLimitWindowSeconds) * time.Second

	if cfg.RateLimitBackend != "redis" {
		return ratelimit.New(cfg.MoneyRateLimitMax, window), nil
	}

	client, err := cache.Client(context.Background())
	if err != nil {
		return nil, fmt.Errorf("connect redis for rate limiter: %w", err)
	}

	return ratelimit.NewRedis(client, cfg.MoneyRateLimitMax, window, "accounts:ratelimit:money"), nil
}
