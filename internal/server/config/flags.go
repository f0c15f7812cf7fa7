package config

import (
	"flag"
	"os"
	"time"

	"github.com/okovalenko/mediadrop/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   stream-token HMAC secret key
//	-t int      session TTL, minutes
//	-k int      stream token TTL, minutes
//	-o string   upload directory (local blob store base)
//	-l string   blob backend: "local" or "s3"
//	-m string   session backend: "memory" or "database"
//	-i int      reconcile sweep interval, minutes (0 disables)
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-k", "-o", "-l", "-m", "-i", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session ttl (in minutes)")
	streamTokenTTL := fs.Int("k", int(config.StreamTokenTTL.Minutes()), "stream token ttl (in minutes)")

	fs.StringVar(&config.UploadDir, "o", config.UploadDir, "upload directory")
	fs.StringVar(&config.BlobBackend, "l", config.BlobBackend, "blob backend (local|s3)")
	fs.StringVar(&config.SessionBackend, "m", config.SessionBackend, "session backend (memory|database)")

	reconcileInterval := fs.Int("i", int(config.ReconcileInterval.Minutes()), "reconcile interval (in minutes, 0 disables)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	config.StreamTokenTTL = time.Duration(*streamTokenTTL) * time.Minute
	config.ReconcileInterval = time.Duration(*reconcileInterval) * time.Minute
}
