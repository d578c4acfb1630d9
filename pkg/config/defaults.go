package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "bondfleet"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Booking-day parameters. A reservation occupies a vehicle for
	// 150 minutes by default; the grid offers 30-minute start times
	// between open and close of day.
	DefaultOpenOfDay          = "08:00"
	DefaultCloseOfDay         = "20:00"
	DefaultSlotGranularityMin = 30
	DefaultDefaultDurationMin = 150
	DefaultMaxPartySize       = 16
	DefaultSlotLockTTL        = 10 * time.Second

	DefaultKafkaBrokers              = "localhost:9092"
	DefaultKafkaTopic                = "reservation.events"
	DefaultKafkaDLQTopic             = "reservation.events.dlq"
	DefaultKafkaProducerMaxAttempts  = 3
	DefaultKafkaProducerBatchTimeout = 100 * time.Millisecond
	DefaultKafkaProducerRequireAcks  = -1
	DefaultKafkaProducerCompression  = "snappy"
	DefaultNotifyQueueSize           = 256
	DefaultNotifyPublishTimeout      = 5 * time.Second

	DefaultPaginationLimit = 100
)
