package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gearhub/internal/flagx"
	"github.com/dmitrijs2005/gearhub/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config file. Every field is
// optional: only keys present in the file override the running Config.
type FileConfig struct {
	Env                         *string         `json:"env" yaml:"env"`
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN                 *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                   *string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	StoreTimeout                *timex.Duration `json:"store_timeout" yaml:"store_timeout"`
	ProcessorTimeout            *timex.Duration `json:"processor_timeout" yaml:"processor_timeout"`
	ReconcileInterval           *timex.Duration `json:"reconcile_interval" yaml:"reconcile_interval"`
	PaymentSecretKey            *string         `json:"payment_secret_key" yaml:"payment_secret_key"`
	PaymentBackendURL           *string         `json:"payment_backend_url" yaml:"payment_backend_url"`
	VerifyPayments              *bool           `json:"verify_payments" yaml:"verify_payments"`
	Currency                    *string         `json:"currency" yaml:"currency"`
	S3RootUser                  *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                    *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile loads the file named by -c/-config, if any. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON. A missing or
// undecodable file panics.
func parseFile(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.Env, c.Env)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.PaymentSecretKey, c.PaymentSecretKey)
	setString(&config.PaymentBackendURL, c.PaymentBackendURL)
	setString(&config.Currency, c.Currency)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.StoreTimeout != nil {
		config.StoreTimeout = c.StoreTimeout.Duration
	}
	if c.ProcessorTimeout != nil {
		config.ProcessorTimeout = c.ProcessorTimeout.Duration
	}
	if c.ReconcileInterval != nil {
		config.ReconcileInterval = c.ReconcileInterval.Duration
	}
	if c.VerifyPayments != nil {
		config.VerifyPayments = *c.VerifyPayments
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
