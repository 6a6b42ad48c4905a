package utils

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Session   SessionConfig
	QR        QRConfig
	MoMo      MoMoConfig
	VNPay     VNPayConfig
	Snowflake SnowflakeConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
}

type AppConfig struct {
	Name         string
	Port         string
	Debug        bool
	LogPath      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type SessionConfig struct {
	ExpiryHours int
}

type QRConfig struct {
	Secret string
}

// MoMoConfig holds the digital-wallet gateway credentials and endpoints.
type MoMoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	RedirectURL string
	IPNURL      string
	RequestType string
	Lang        string
	Timeout     time.Duration
}

// VNPayConfig holds the bank-transfer gateway credentials and endpoints.
type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	Version    string
	Command    string
	Locale     string
}

type SnowflakeConfig struct {
	Node int64
}

type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	RateLimitPerMin int
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "event-ticketing")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("HTTP_READ_TIMEOUT_SECONDS", 15)
	viper.SetDefault("HTTP_WRITE_TIMEOUT_SECONDS", 60)
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("SESSION_EXPIRY_HOURS", 24)
	viper.SetDefault("MOMO_REQUEST_TYPE", "payWithATM")
	viper.SetDefault("MOMO_LANG", "vi")
	viper.SetDefault("MOMO_TIMEOUT_SECONDS", 30)
	viper.SetDefault("VNP_VERSION", "2.1.0")
	viper.SetDefault("VNP_COMMAND", "pay")
	viper.SetDefault("VNP_LOCALE", "vn")
	viper.SetDefault("SNOWFLAKE_NODE", 1)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	viper.SetDefault("RABBITMQ_EXCHANGE", "ticketing.events")

	// .env is optional; the environment always wins
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:         viper.GetString("APP_NAME"),
			Port:         viper.GetString("PORT"),
			Debug:        viper.GetBool("DEBUG"),
			LogPath:      viper.GetString("LOG_PATH"),
			ReadTimeout:  time.Duration(viper.GetInt("HTTP_READ_TIMEOUT_SECONDS")) * time.Second,
			WriteTimeout: time.Duration(viper.GetInt("HTTP_WRITE_TIMEOUT_SECONDS")) * time.Second,
			CORSOrigins:  splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Session: SessionConfig{
			ExpiryHours: viper.GetInt("SESSION_EXPIRY_HOURS"),
		},
		QR: QRConfig{
			Secret: viper.GetString("QR_SECRET"),
		},
		MoMo: MoMoConfig{
			PartnerCode: viper.GetString("MOMO_PARTNER_CODE"),
			AccessKey:   viper.GetString("MOMO_ACCESS_KEY"),
			SecretKey:   viper.GetString("MOMO_SECRET_KEY"),
			Endpoint:    viper.GetString("MOMO_ENDPOINT"),
			RedirectURL: viper.GetString("MOMO_REDIRECT_URL"),
			IPNURL:      viper.GetString("MOMO_IPN_URL"),
			RequestType: viper.GetString("MOMO_REQUEST_TYPE"),
			Lang:        viper.GetString("MOMO_LANG"),
			Timeout:     time.Duration(viper.GetInt("MOMO_TIMEOUT_SECONDS")) * time.Second,
		},
		VNPay: VNPayConfig{
			TmnCode:    viper.GetString("VNP_TMNCODE"),
			HashSecret: viper.GetString("VNP_HASHSECRET"),
			PayURL:     viper.GetString("VNP_URL"),
			ReturnURL:  viper.GetString("VNP_RETURNURL"),
			Version:    viper.GetString("VNP_VERSION"),
			Command:    viper.GetString("VNP_COMMAND"),
			Locale:     viper.GetString("VNP_LOCALE"),
		},
		Snowflake: SnowflakeConfig{
			Node: viper.GetInt64("SNOWFLAKE_NODE"),
		},
		Redis: RedisConfig{
			Addr:            viper.GetString("REDIS_ADDR"),
			Password:        viper.GetString("REDIS_PASSWORD"),
			DB:              viper.GetInt("REDIS_DB"),
			RateLimitPerMin: viper.GetInt("RATE_LIMIT_PER_MINUTE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      viper.GetString("RABBITMQ_URL"),
			Exchange: viper.GetString("RABBITMQ_EXCHANGE"),
		},
	}

	if config.QR.Secret == "" {
		return nil, errors.New("QR_SECRET is required")
	}

	return config, nil
}

// splitList parses a comma-separated env value.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
