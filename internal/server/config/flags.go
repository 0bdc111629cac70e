package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/gearhub/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      identity token validity, minutes
//	-k string   payment processor secret key
//	-v bool     verify payments with the processor before settling
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-b string   S3 bucket name
//
// Flags are filtered out of args first so other components (cobra
// subcommands, the config file flag) can share the same argument list.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-k", "-v", "-e", "-b"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to serve HTTP")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to serve gRPC health")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "token validity (in minutes)")
	fs.StringVar(&config.PaymentSecretKey, "k", config.PaymentSecretKey, "payment processor secret key")
	fs.BoolVar(&config.VerifyPayments, "v", config.VerifyPayments, "verify payments before settlement")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
}
