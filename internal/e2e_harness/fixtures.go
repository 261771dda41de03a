package e2e_harness

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lychee-technology/roster"
	"github.com/lychee-technology/roster/factory"
)

// PostgresStorage returns a key-value configuration for the harness Postgres via pgx.
func (h *TestHarness) PostgresStorage(table string) *roster.Config {
	cfg := roster.DefaultConfig()
	cfg.Storage.Mode = roster.StorageModeKeyValue
	cfg.Storage.Backend = roster.KVBackendPostgres
	cfg.Storage.Postgres.Host = h.PGHost
	cfg.Storage.Postgres.Port = h.PGPort
	cfg.Storage.Postgres.Database = pgDatabase
	cfg.Storage.Postgres.Username = pgUser
	cfg.Storage.Postgres.Password = pgPassword
	cfg.Storage.Postgres.Table = table
	return cfg
}

// SQLStorage returns a key-value configuration for the harness Postgres via lib/pq.
func (h *TestHarness) SQLStorage(table string) *roster.Config {
	cfg := roster.DefaultConfig()
	cfg.Storage.Mode = roster.StorageModeKeyValue
	cfg.Storage.Backend = roster.KVBackendSQL
	cfg.Storage.SQL.Driver = "postgres"
	cfg.Storage.SQL.DSN = h.PGDSN
	cfg.Storage.SQL.Table = table
	return cfg
}

// S3Storage returns a key-value configuration for the harness object store.
func (h *TestHarness) S3Storage(bucket string) *roster.Config {
	cfg := roster.DefaultConfig()
	cfg.Storage.Mode = roster.StorageModeKeyValue
	cfg.Storage.Backend = roster.KVBackendS3
	cfg.Storage.S3 = roster.S3Config{
		Bucket:       bucket,
		Prefix:       "roster/e2e",
		Region:       "us-east-1",
		Endpoint:     h.S3Endpoint,
		AccessKey:    s3AccessKey,
		SecretKey:    s3SecretKey,
		UsePathStyle: true,
		CreateBucket: true,
	}
	return cfg
}

// SeedPostgres writes blobs straight into the kv table, as another instance would.
func SeedPostgres(ctx context.Context, db *sql.DB, table string, blobs map[string]any) error {
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
  "key" TEXT PRIMARY KEY,
  "value" JSONB NOT NULL,
  updated_at BIGINT NOT NULL
);`, table)
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	now := time.Now().UnixMilli()
	for key, v := range blobs {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		stmt := fmt.Sprintf(`INSERT INTO %q ("key", "value", updated_at) VALUES ($1, $2, $3)
ON CONFLICT ("key") DO UPDATE SET "value" = EXCLUDED."value", updated_at = EXCLUDED.updated_at`, table)
		if _, err := db.ExecContext(ctx, stmt, key, string(data), now); err != nil {
			return fmt.Errorf("seed %s: %w", key, err)
		}
	}
	return nil
}

// UploadBlob writes raw bytes to the object the S3 backend reads for key.
func UploadBlob(ctx context.Context, cfg roster.S3Config, key string, data []byte) error {
	client, err := factory.NewS3Client(ctx, cfg)
	if err != nil {
		return err
	}
	uploader := manager.NewUploader(client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(cfg.Bucket),
		Key:    aws.String(cfg.Prefix + "/" + key + ".json"),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}
	return nil
}
