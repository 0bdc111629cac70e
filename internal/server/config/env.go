package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfig lists the environment variables the server understands.
// Unset variables leave the corresponding Config field untouched.
type EnvConfig struct {
	Env                         string        `env:"GEARHUB_ENV"`
	EndpointAddrHTTP            string        `env:"GEARHUB_HTTP_ADDR"`
	EndpointAddrGRPC            string        `env:"GEARHUB_GRPC_ADDR"`
	DatabaseDSN                 string        `env:"GEARHUB_DATABASE_DSN"`
	SecretKey                   string        `env:"GEARHUB_SECRET_KEY"`
	AccessTokenValidityDuration time.Duration `env:"GEARHUB_TOKEN_TTL"`
	PaymentSecretKey            string        `env:"GEARHUB_PAYMENT_SECRET_KEY"`
	VerifyPayments              string        `env:"GEARHUB_VERIFY_PAYMENTS"`
	S3RootUser                  string        `env:"GEARHUB_S3_ROOT_USER"`
	S3RootPassword              string        `env:"GEARHUB_S3_ROOT_PASSWORD"`
	S3Bucket                    string        `env:"GEARHUB_S3_BUCKET"`
	S3BaseEndpoint              string        `env:"GEARHUB_S3_BASE_ENDPOINT"`
}

// parseEnv overlays environment variables using cleanenv. The original
// express bootstrap read PORT, so a bare PORT is honoured for the HTTP address.
func parseEnv(config *Config) {
	e := &EnvConfig{}
	if err := cleanenv.ReadEnv(e); err != nil {
		panic(err)
	}

	var port struct {
		Port string `env:"PORT"`
	}
	if err := cleanenv.ReadEnv(&port); err != nil {
		panic(err)
	}
	if port.Port != "" {
		config.EndpointAddrHTTP = ":" + port.Port
	}

	overlay(&config.Env, e.Env)
	overlay(&config.EndpointAddrHTTP, e.EndpointAddrHTTP)
	overlay(&config.EndpointAddrGRPC, e.EndpointAddrGRPC)
	overlay(&config.DatabaseDSN, e.DatabaseDSN)
	overlay(&config.SecretKey, e.SecretKey)
	overlay(&config.PaymentSecretKey, e.PaymentSecretKey)
	overlay(&config.S3RootUser, e.S3RootUser)
	overlay(&config.S3RootPassword, e.S3RootPassword)
	overlay(&config.S3Bucket, e.S3Bucket)
	overlay(&config.S3BaseEndpoint, e.S3BaseEndpoint)

	if e.AccessTokenValidityDuration > 0 {
		config.AccessTokenValidityDuration = e.AccessTokenValidityDuration
	}
	switch e.VerifyPayments {
	case "true", "1":
		config.VerifyPayments = true
	case "false", "0":
		config.VerifyPayments = false
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
