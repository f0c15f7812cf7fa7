package config

import (
	"os"
	"time"
)

// parseEnv overlays Config fields from environment variables. Variables are
// applied after defaults and before the JSON file and flags, so explicit
// operator input still wins.
//
// Supported variables:
//
//	ENDPOINT_ADDR       HTTP bind address
//	DATABASE_DSN        PostgreSQL DSN
//	SECRET_KEY          stream-token HMAC secret key
//	SESSION_TTL         session lifetime (Go duration, e.g. "12h")
//	STREAM_TOKEN_TTL    stream token lifetime (Go duration)
//	UPLOAD_DIR          upload directory (local blob store base)
//	BLOB_BACKEND        "local" or "s3"
//	SESSION_BACKEND     "memory" or "database"
//	RECONCILE_INTERVAL  reconcile sweep interval (Go duration, 0 disables)
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT
func parseEnv(config *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	setString("ENDPOINT_ADDR", &config.EndpointAddr)
	setString("DATABASE_DSN", &config.DatabaseDSN)
	setString("SECRET_KEY", &config.SecretKey)
	setDuration("SESSION_TTL", &config.SessionTTL)
	setDuration("STREAM_TOKEN_TTL", &config.StreamTokenTTL)
	setString("UPLOAD_DIR", &config.UploadDir)
	setString("BLOB_BACKEND", &config.BlobBackend)
	setString("SESSION_BACKEND", &config.SessionBackend)
	setDuration("RECONCILE_INTERVAL", &config.ReconcileInterval)
	setString("S3_ROOT_USER", &config.S3RootUser)
	setString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	setString("S3_BUCKET", &config.S3Bucket)
	setString("S3_REGION", &config.S3Region)
	setString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
}
