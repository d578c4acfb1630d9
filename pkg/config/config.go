package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bondfleet/pkg/client"
	"bondfleet/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	OpenOfDay          string
	CloseOfDay         string
	SlotGranularityMin int
	DefaultDurationMin int
	MaxPartySize       int
	SlotLockTTL        time.Duration

	KafkaBrokers              []string
	KafkaTopic                string
	KafkaDLQTopic             string
	KafkaProducerMaxAttempts  int
	KafkaProducerBatchTimeout time.Duration
	KafkaProducerRequireAcks  int
	KafkaProducerCompression  string
	NotifyQueueSize           int
	NotifyPublishTimeout      time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	brokers := strings.Split(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers), ",")
	for i, broker := range brokers {
		brokers[i] = strings.TrimSpace(broker)
	}

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		OpenOfDay:          getEnvStr(EnvOpenOfDay, DefaultOpenOfDay),
		CloseOfDay:         getEnvStr(EnvCloseOfDay, DefaultCloseOfDay),
		SlotGranularityMin: getEnvNum(EnvSlotGranularityMin, DefaultSlotGranularityMin),
		DefaultDurationMin: getEnvNum(EnvDefaultDurationMin, DefaultDefaultDurationMin),
		MaxPartySize:       getEnvNum(EnvMaxPartySize, DefaultMaxPartySize),
		SlotLockTTL:        getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),

		KafkaBrokers:              brokers,
		KafkaTopic:                getEnvStr(EnvKafkaTopic, DefaultKafkaTopic),
		KafkaDLQTopic:             getEnvStr(EnvKafkaDLQTopic, DefaultKafkaDLQTopic),
		KafkaProducerMaxAttempts:  getEnvNum(EnvKafkaProducerMaxAttempts, DefaultKafkaProducerMaxAttempts),
		KafkaProducerBatchTimeout: getEnvDuration(EnvKafkaProducerBatchTimeout, DefaultKafkaProducerBatchTimeout),
		KafkaProducerRequireAcks:  getEnvNum(EnvKafkaProducerRequireAcks, DefaultKafkaProducerRequireAcks),
		KafkaProducerCompression:  getEnvStr(EnvKafkaProducerCompression, DefaultKafkaProducerCompression),
		NotifyQueueSize:           getEnvNum(EnvNotifyQueueSize, DefaultNotifyQueueSize),
		NotifyPublishTimeout:      getEnvDuration(EnvNotifyPublishTimeout, DefaultNotifyPublishTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

var (
	clockRegex    = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	mongoURIRegex = regexp.MustCompile(`^mongodb(\+srv)?://`)
)

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if !clockRegex.MatchString(cfg.OpenOfDay) {
		errors = append(errors, fmt.Sprintf("OpenOfDay must be in HH:MM format (00:00-23:59), got: %s", cfg.OpenOfDay))
	}
	if !clockRegex.MatchString(cfg.CloseOfDay) {
		errors = append(errors, fmt.Sprintf("CloseOfDay must be in HH:MM format (00:00-23:59), got: %s", cfg.CloseOfDay))
	}
	if cfg.OpenOfDay >= cfg.CloseOfDay {
		errors = append(errors, fmt.Sprintf("OpenOfDay (%s) must be before CloseOfDay (%s)", cfg.OpenOfDay, cfg.CloseOfDay))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !mongoURIRegex.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.SlotGranularityMin <= 0 {
		errors = append(errors, fmt.Sprintf("SlotGranularityMin must be positive, got: %d", cfg.SlotGranularityMin))
	}
	if cfg.DefaultDurationMin <= 0 {
		errors = append(errors, fmt.Sprintf("DefaultDurationMin must be positive, got: %d", cfg.DefaultDurationMin))
	}
	if cfg.MaxPartySize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxPartySize must be positive, got: %d", cfg.MaxPartySize))
	}
	if cfg.SlotLockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SlotLockTTL must be positive, got: %s", cfg.SlotLockTTL))
	}

	if len(cfg.KafkaBrokers) == 0 {
		errors = append(errors, "At least one Kafka broker is required")
	}
	for i, broker := range cfg.KafkaBrokers {
		if broker == "" {
			errors = append(errors, fmt.Sprintf("Kafka broker %d cannot be empty", i))
		}
	}
	if cfg.KafkaTopic == "" {
		errors = append(errors, "KafkaTopic cannot be empty")
	}
	if cfg.KafkaProducerMaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("KafkaProducerMaxAttempts must be positive, got: %d", cfg.KafkaProducerMaxAttempts))
	}
	if cfg.KafkaProducerBatchTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("KafkaProducerBatchTimeout must be positive, got: %s", cfg.KafkaProducerBatchTimeout))
	}
	validAcks := map[int]bool{-1: true, 0: true, 1: true}
	if !validAcks[cfg.KafkaProducerRequireAcks] {
		errors = append(errors, fmt.Sprintf("KafkaProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.KafkaProducerRequireAcks))
	}
	validCompressions := map[string]bool{"none": true, "gzip": true, "snappy": true, "lz4": true, "zstd": true}
	if !validCompressions[cfg.KafkaProducerCompression] {
		errors = append(errors, fmt.Sprintf("KafkaProducerCompression must be one of [none, gzip, snappy, lz4, zstd], got: %s", cfg.KafkaProducerCompression))
	}
	if cfg.NotifyQueueSize <= 0 {
		errors = append(errors, fmt.Sprintf("NotifyQueueSize must be positive, got: %d", cfg.NotifyQueueSize))
	}
	if cfg.NotifyPublishTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("NotifyPublishTimeout must be positive, got: %s", cfg.NotifyPublishTimeout))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"open_of_day", cfg.OpenOfDay,
		"close_of_day", cfg.CloseOfDay,
		"slot_granularity_min", cfg.SlotGranularityMin,
		"default_duration_min", cfg.DefaultDurationMin,
		"max_party_size", cfg.MaxPartySize,
		"slot_lock_ttl", cfg.SlotLockTTL,
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_topic", cfg.KafkaTopic,
		"kafka_dlq_topic", cfg.KafkaDLQTopic,
		"notify_queue_size", cfg.NotifyQueueSize,
		"notify_publish_timeout", cfg.NotifyPublishTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
