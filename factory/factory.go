package factory

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/roster"
	"github.com/lychee-technology/roster/internal"
	"go.uber.org/zap"
)

// Directory is an owned roster.Directory together with the resources backing it.
//
// Usage:
//
//	cfg := roster.DefaultConfig()
//	cfg.ApplyEnv(os.LookupEnv)
//	dir, err := factory.NewDirectory(ctx, cfg)
//	if err != nil {
//	    // handle error
//	}
//	defer dir.Close()
type Directory struct {
	*internal.DirectoryService
	store roster.KeyValueStore
	close func()
}

// Health pings the key-value backend. In-memory directories are always healthy.
func (d *Directory) Health(ctx context.Context) error {
	return internal.CheckHealth(ctx, d.store, 0)
}

// Close releases connection pools and database handles. It is safe to call more than once.
func (d *Directory) Close() {
	if d.close != nil {
		d.close()
		d.close = nil
	}
}

// Remote backends fail fast once they keep erroring.
const (
	breakerThreshold    = 5
	breakerWindow       = 30 * time.Second
	breakerOpenDuration = 15 * time.Second
)

type options struct {
	adapter    roster.StorageAdapter
	onFallback func(key string, err error)
}

// Option customizes NewDirectory and NewStorageAdapter.
type Option func(*options)

// WithAdapter bypasses the configured storage and uses adapter. The caller keeps ownership
// of adapter.
func WithAdapter(adapter roster.StorageAdapter) Option {
	return func(o *options) {
		o.adapter = adapter
	}
}

// WithFallbackHook is called when a stored blob is undecodable and the defaults are served.
func WithFallbackHook(hook func(key string, err error)) Option {
	return func(o *options) {
		o.onFallback = hook
	}
}

// NewDirectory validates cfg and builds a directory over the configured storage.
func NewDirectory(ctx context.Context, cfg *roster.Config, opts ...Option) (*Directory, error) {
	adapter, store, closeFn, err := newStorage(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Directory{
		DirectoryService: internal.NewDirectoryService(adapter),
		store:            store,
		close:            closeFn,
	}, nil
}

// NewStorageAdapter builds the adapter selected by cfg.Storage.Mode. The returned func
// releases backend resources and is never nil.
func NewStorageAdapter(ctx context.Context, cfg *roster.Config, opts ...Option) (roster.StorageAdapter, func(), error) {
	adapter, _, closeFn, err := newStorage(ctx, cfg, opts...)
	return adapter, closeFn, err
}

// newStorage also returns the key-value store behind the adapter, nil for in-memory
// storage and injected adapters.
func newStorage(ctx context.Context, cfg *roster.Config, opts ...Option) (roster.StorageAdapter, roster.KeyValueStore, func(), error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.adapter != nil {
		return o.adapter, nil, func() {}, nil
	}

	if cfg == nil {
		cfg = roster.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	switch cfg.Storage.Mode {
	case roster.StorageModeInMemory:
		zap.S().Infow("using in-memory storage")
		return internal.NewInMemoryAdapter(), nil, func() {}, nil

	case roster.StorageModeKeyValue:
		store, closeFn, err := NewKeyValueStore(ctx, cfg.Storage)
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.Storage.Backend != roster.KVBackendFile {
			breaker := internal.NewCircuitBreaker(breakerThreshold, breakerWindow, breakerOpenDuration)
			store = internal.NewBreakerKVStore(string(cfg.Storage.Backend), store, breaker)
		}
		kvOpts := []internal.KVAdapterOption{
			internal.WithKeys(cfg.Storage.RecordsKey, cfg.Storage.FieldsKey),
		}
		if o.onFallback != nil {
			kvOpts = append(kvOpts, internal.WithFallbackHook(o.onFallback))
		}
		zap.S().Infow("using key-value storage", "backend", cfg.Storage.Backend,
			"recordsKey", cfg.Storage.RecordsKey, "fieldsKey", cfg.Storage.FieldsKey)
		return internal.NewKVAdapter(store, kvOpts...), store, closeFn, nil

	default:
		return nil, nil, nil, roster.NewUnsupportedModeError(roster.ErrCodeUnsupportedMode, string(cfg.Storage.Mode))
	}
}

// NewKeyValueStore opens the backend selected by cfg.Backend. Table-backed stores have
// their table created if missing.
func NewKeyValueStore(ctx context.Context, cfg roster.StorageConfig) (roster.KeyValueStore, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case roster.KVBackendFile, "":
		store, err := internal.NewFileKVStore(cfg.File.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil

	case roster.KVBackendPostgres:
		pool, err := NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		store := internal.NewPostgresKVStore(pool, cfg.Postgres.Table)
		if err := store.EnsureTable(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	case roster.KVBackendSQL:
		store, err := internal.OpenSQLKVStore(cfg.SQL.Driver, cfg.SQL.DSN, cfg.SQL.Table)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := store.Close(); err != nil {
				zap.S().Warnw("failed to close sql store", "error", err)
			}
		}
		if err := store.EnsureTable(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return store, closeFn, nil

	case roster.KVBackendS3:
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		store := internal.NewS3KVStore(client, cfg.S3.Bucket, cfg.S3.Prefix)
		if cfg.S3.CreateBucket {
			if err := store.EnsureBucket(ctx); err != nil {
				return nil, nil, err
			}
		}
		return store, noop, nil

	default:
		return nil, nil, roster.NewUnsupportedModeError(roster.ErrCodeUnsupportedDriver, string(cfg.Backend))
	}
}

// PostgresConnString builds a pgx connection URL. password overrides cfg.Password when
// non-empty.
func PostgresConnString(cfg roster.PostgresConfig, password string) string {
	if password == "" {
		password = cfg.Password
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Database,
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}

// NewPostgresPool creates and pings a pgx pool. With UseIAM the password is a DSQL auth
// token generated from the default AWS credential chain.
func NewPostgresPool(ctx context.Context, cfg roster.PostgresConfig) (*pgxpool.Pool, error) {
	password := cfg.Password
	if cfg.UseIAM {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		endpoint := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		token, err := auth.GenerateDbConnectAuthToken(ctx, endpoint, awsCfg.Region, awsCfg.Credentials)
		if err != nil {
			return nil, fmt.Errorf("generate dsql auth token: %w", err)
		}
		zap.S().Infow("generated IAM auth token for Postgres connection", "host", cfg.Host)
		password = token
	}

	poolConfig, err := pgxpool.ParseConfig(PostgresConnString(cfg, password))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConnections)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// NewS3Client builds an S3 client. Static credentials and a custom endpoint are used when
// configured, which is how MinIO-compatible servers are reached.
func NewS3Client(ctx context.Context, cfg roster.S3Config) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, awsconfig.WithBaseEndpoint(cfg.Endpoint))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// NewLogger builds a zap logger from cfg.
func NewLogger(cfg roster.LoggingConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	if cfg.Format != "" {
		zc.Encoding = cfg.Format
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = level
	}
	return zc.Build()
}
