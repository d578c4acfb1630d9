package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvOpenOfDay          = "OPEN_OF_DAY"
	EnvCloseOfDay         = "CLOSE_OF_DAY"
	EnvSlotGranularityMin = "SLOT_GRANULARITY_MIN"
	EnvDefaultDurationMin = "DEFAULT_DURATION_MIN"
	EnvMaxPartySize       = "MAX_PARTY_SIZE"
	EnvSlotLockTTL        = "SLOT_LOCK_TTL"

	EnvKafkaBrokers              = "KAFKA_BROKERS"
	EnvKafkaTopic                = "KAFKA_TOPIC"
	EnvKafkaDLQTopic             = "KAFKA_DLQ_TOPIC"
	EnvKafkaProducerMaxAttempts  = "KAFKA_PRODUCER_MAX_ATTEMPTS"
	EnvKafkaProducerBatchTimeout = "KAFKA_PRODUCER_BATCH_TIMEOUT"
	EnvKafkaProducerRequireAcks  = "KAFKA_PRODUCER_REQUIRE_ACKS"
	EnvKafkaProducerCompression  = "KAFKA_PRODUCER_COMPRESSION"
	EnvNotifyQueueSize           = "NOTIFY_QUEUE_SIZE"
	EnvNotifyPublishTimeout      = "NOTIFY_PUBLISH_TIMEOUT"
)
