package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for uploaded documents,
// notary output files, and signature images.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// GatewayConfig holds payment gateway credentials and the client-facing
// redirect URLs attached to every checkout link.
type GatewayConfig struct {
	BaseURL   string
	ClientID  string
	APIKey    string
	ReturnURL string
	CancelURL string
}

// ChainConfig holds ledger RPC and mint service settings.
type ChainConfig struct {
	RPCURL             string
	MintURL            string
	ServiceWallet      string
	MinBalanceLamports int64
}

// PinningConfig holds the content-addressed storage service settings.
type PinningConfig struct {
	BaseURL    string
	APIKey     string
	GatewayURL string
}

// EncryptionConfig selects the document encryption strategy. PolicyVersion
// names the access-control-condition schema sent to the encryption service.
type EncryptionConfig struct {
	Enabled       bool
	BaseURL       string
	APIKey        string
	PolicyVersion string
}

// SMTPConfig holds outbound email settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// AuthConfig holds JWT signing settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// SchedulerConfig holds cron expressions for the background sweeps and the
// staleness threshold for auto-verification.
type SchedulerConfig struct {
	AutoVerifySpec     string
	ReconcileSpec      string
	StaleAfter         time.Duration
	ReconcileItemDelay time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost    string
	Port       string
	Database   DatabaseConfig
	MinIO      MinIOConfig
	Gateway    GatewayConfig
	Chain      ChainConfig
	Pinning    PinningConfig
	Encryption EncryptionConfig
	SMTP       SMTPConfig
	Auth       AuthConfig
	Scheduler  SchedulerConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Gateway: GatewayConfig{
			BaseURL:   getEnv("PAYMENT_GATEWAY_URL", ""),
			ClientID:  getEnv("PAYMENT_CLIENT_ID", ""),
			APIKey:    getEnv("PAYMENT_API_KEY", ""),
			ReturnURL: getEnv("CLIENT_URL", "") + "/payment/redirect",
			CancelURL: getEnv("CLIENT_URL", "") + "/payment/redirect",
		},
		Chain: ChainConfig{
			RPCURL:             getEnv("CHAIN_RPC_URL", ""),
			MintURL:            getEnv("CHAIN_MINT_URL", ""),
			ServiceWallet:      getEnv("CHAIN_SERVICE_WALLET", ""),
			MinBalanceLamports: getEnvInt64("CHAIN_MIN_BALANCE_LAMPORTS", 5000),
		},
		Pinning: PinningConfig{
			BaseURL:    getEnv("PINNING_SERVICE_URL", ""),
			APIKey:     getEnv("PINNING_API_KEY", ""),
			GatewayURL: getEnv("PINNING_GATEWAY_URL", "https://ipfs.io/ipfs"),
		},
		Encryption: EncryptionConfig{
			Enabled:       getEnvBool("ENCRYPTION_ENABLED", false),
			BaseURL:       getEnv("ENCRYPTION_SERVICE_URL", ""),
			APIKey:        getEnv("ENCRYPTION_API_KEY", ""),
			PolicyVersion: getEnv("ENCRYPTION_POLICY_VERSION", "v1"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  time.Duration(getEnvInt("JWT_TTL_MINUTES", 60)) * time.Minute,
		},
		Scheduler: SchedulerConfig{
			AutoVerifySpec:     getEnv("CRON_AUTO_VERIFY", "0 * * * *"),
			ReconcileSpec:      getEnv("CRON_RECONCILE_PAYMENTS", "0 0 * * *"),
			StaleAfter:         time.Duration(getEnvInt("AUTO_VERIFY_STALE_HOURS", 24)) * time.Hour,
			ReconcileItemDelay: time.Duration(getEnvInt("RECONCILE_ITEM_DELAY_MS", 1000)) * time.Millisecond,
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}
