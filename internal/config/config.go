package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	SMS       SMSConfig
	Kram      KramConfig
	Static    StaticConfig
	Scheduler SchedulerConfig
	LogLevel  string
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	// URL overrides the discrete fields when set.
	URL string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type SMSConfig struct {
	GatewayURL string
	APIKey     string
	Sender     string
	Timeout    time.Duration
}

type KramConfig struct {
	SentimentThreshold float64
	ReceiverCooldown   time.Duration
	LexiconFile        string
	RandomSeed         uint64
}

type StaticConfig struct {
	Dir          string
	ThankYouFile string
}

type SchedulerConfig struct {
	StatsInterval time.Duration
}

// LoadAll reads the configuration from the environment. All problems are
// collected and returned together, each naming the offending variable.
func LoadAll() (*Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Static: StaticConfig{
			Dir:          getEnv("STATIC_DIR", "static"),
			ThankYouFile: getEnv("THANK_YOU_FILE", "static/thankyous.txt"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	db, err := loadDatabaseConfig()
	collect(err)
	cfg.Database = db

	sms, err := loadSMSConfig()
	collect(err)
	cfg.SMS = sms

	kram, err := loadKramConfig()
	collect(err)
	cfg.Kram = kram

	statsSeconds, err := getEnvInt("STATS_INTERVAL_SECONDS", 60)
	collect(err)
	cfg.Scheduler.StatsInterval = time.Duration(statsSeconds) * time.Second

	redisCfg, err := loadRedisConfig()
	collect(err)
	cfg.Redis = redisCfg

	if len(errs) > 0 {
		return nil, joinErrors(errs)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	if u := os.Getenv("POSTGRES_URL"); u != "" {
		return DatabaseConfig{URL: u}, nil
	}

	var errs []error
	port, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		errs = append(errs, err)
	}
	password, err := requireEnv("DB_PASSWORD")
	if err != nil {
		errs = append(errs, err)
	}

	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("DB_USER", "postgres"),
		Password: password,
		Name:     getEnv("DB_NAME", "kram"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}, joinErrors(errs)
}

func loadSMSConfig() (SMSConfig, error) {
	var errs []error
	key, err := requireEnv("SMS_API_KEY")
	if err != nil {
		errs = append(errs, err)
	}
	timeout, err := getEnvInt("SMS_TIMEOUT_SECONDS", 10)
	if err != nil {
		errs = append(errs, err)
	}

	return SMSConfig{
		GatewayURL: getEnv("SMS_GATEWAY_URL", "https://gatewayapi.com/rest/mtsms"),
		APIKey:     key,
		Sender:     getEnv("SMS_SENDER", "Kram"),
		Timeout:    time.Duration(timeout) * time.Second,
	}, joinErrors(errs)
}

func loadKramConfig() (KramConfig, error) {
	var errs []error
	threshold, err := getEnvFloat("SENTIMENT_THRESHOLD", 0)
	if err != nil {
		errs = append(errs, err)
	}
	cooldown, err := getEnvInt("RECEIVER_COOLDOWN_MINUTES", 30)
	if err != nil {
		errs = append(errs, err)
	}
	seed, err := getEnvUint("RANDOM_SEED", 0)
	if err != nil {
		errs = append(errs, err)
	}

	return KramConfig{
		SentimentThreshold: threshold,
		ReceiverCooldown:   time.Duration(cooldown) * time.Minute,
		LexiconFile:        os.Getenv("LEXICON_FILE"),
		RandomSeed:         seed,
	}, joinErrors(errs)
}

func loadRedisConfig() (RedisConfig, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}, nil
	}

	var errs []error
	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		errs = append(errs, err)
	}
	ttl, err := getEnvInt("REDIS_TTL_SECONDS", 86400)
	if err != nil {
		errs = append(errs, err)
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		TTL:      time.Duration(ttl) * time.Second,
	}, joinErrors(errs)
}

func validate(cfg *Config) error {
	var errs []error
	if cfg.SMS.Timeout <= 0 {
		errs = append(errs, errors.New("SMS_TIMEOUT_SECONDS must be > 0"))
	}
	if cfg.Kram.ReceiverCooldown <= 0 {
		errs = append(errs, errors.New("RECEIVER_COOLDOWN_MINUTES must be > 0"))
	}
	if cfg.Scheduler.StatsInterval <= 0 {
		errs = append(errs, errors.New("STATS_INTERVAL_SECONDS must be > 0"))
	}
	if cfg.Database.URL == "" && (cfg.Database.Port <= 0 || cfg.Database.Port > 65535) {
		errs = append(errs, errors.New("DB_PORT must be a valid port"))
	}
	if cfg.Redis.Enabled && cfg.Redis.TTL <= 0 {
		errs = append(errs, errors.New("REDIS_TTL_SECONDS must be > 0"))
	}
	return joinErrors(errs)
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for env %s: %q", key, v)
	}
	return i, nil
}

func getEnvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number for env %s: %q", key, v)
	}
	return f, nil
}

func getEnvUint(key string, def uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	u, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid unsigned int for env %s: %q", key, v)
	}
	return u, nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
