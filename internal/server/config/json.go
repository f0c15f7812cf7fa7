package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/okovalenko/mediadrop/internal/flagx"
	"github.com/okovalenko/mediadrop/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Duration fields use timex.Duration so both string values such as
// "12h" and integer nanoseconds parse. After unmarshalling, its fields are
// copied into the runtime Config struct.
type JsonConfig struct {
	EndpointAddr      string         `json:"endpoint_addr"`
	DatabaseDSN       string         `json:"database_dsn"`
	SecretKey         string         `json:"secret_key"`
	SessionTTL        timex.Duration `json:"session_ttl"`
	StreamTokenTTL    timex.Duration `json:"stream_token_ttl"`
	UploadDir         string         `json:"upload_dir"`
	BlobBackend       string         `json:"blob_backend"`
	SessionBackend    string         `json:"session_backend"`
	ReconcileInterval timex.Duration `json:"reconcile_interval"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path is taken from the -c or -config flags; when
// neither is set, no JSON file is loaded. An unreadable or invalid file
// panics, since the operator explicitly asked for it.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.SessionTTL = time.Duration(c.SessionTTL.Duration)
	config.StreamTokenTTL = time.Duration(c.StreamTokenTTL.Duration)
	config.UploadDir = c.UploadDir
	config.BlobBackend = c.BlobBackend
	config.SessionBackend = c.SessionBackend
	config.ReconcileInterval = time.Duration(c.ReconcileInterval.Duration)
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
