package config

import "time"

const (
	DefaultSlotCount        = 10
	DefaultHoldDuration     = 5 * time.Second
	DefaultValidatorWorkers = 2
	DefaultProcessorWorkers = 1
	DefaultLockTimeout      = 1 * time.Second
	DefaultSweepPeriod      = 1 * time.Second
	DefaultSweepLockTimeout = 200 * time.Millisecond
	DefaultQueueSize        = 1024
	DefaultEventBufferSize  = 4096

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRPS   = 20.0
	DefaultRateLimitBurst = 40

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 64 * 1024 // 64KB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultMongoEnabled      = false
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "slotkeeper"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisEnabled     = false
	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisDB          = 0
	DefaultRedisStatsPrefix = "slotkeeper:stats"
	DefaultRedisStatsTTL    = 24 * time.Hour

	DefaultKafkaEnabled            = false
	DefaultKafkaReservationsTopic  = "slot-reservations"
	DefaultKafkaConfirmationsTopic = "slot-confirmations"
	DefaultKafkaEventsTopic        = "slot-events"
	DefaultKafkaDLQTopic           = "slot-requests-dlq"
	DefaultKafkaGroupID            = "slotkeeper"

	DefaultSimRequesters     = 6
	DefaultSimDuration       = 20 * time.Second
	DefaultSimReportInterval = 2 * time.Second
	DefaultSimConfirmRatio   = 0.6
	DefaultSimTargetWait     = 30 * time.Second
)
