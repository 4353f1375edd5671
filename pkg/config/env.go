package config

const (
	EnvSlotCount        = "SLOT_COUNT"
	EnvHoldDuration     = "HOLD_DURATION"
	EnvValidatorWorkers = "VALIDATOR_WORKERS"
	EnvProcessorWorkers = "PROCESSOR_WORKERS"
	EnvLockTimeout      = "LOCK_TIMEOUT"
	EnvSweepPeriod      = "SWEEP_PERIOD"
	EnvSweepLockTimeout = "SWEEP_LOCK_TIMEOUT"
	EnvQueueSize        = "QUEUE_SIZE"
	EnvEventBufferSize  = "EVENT_BUFFER_SIZE"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRPS   = "RATE_LIMIT_RPS"
	EnvRateLimitBurst = "RATE_LIMIT_BURST"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvMongoEnabled      = "MONGO_ENABLED"
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisEnabled     = "REDIS_ENABLED"
	EnvRedisAddr        = "REDIS_ADDR"
	EnvRedisPassword    = "REDIS_PASSWORD"
	EnvRedisDB          = "REDIS_DB"
	EnvRedisStatsPrefix = "REDIS_STATS_PREFIX"
	EnvRedisStatsTTL    = "REDIS_STATS_TTL"

	EnvKafkaEnabled            = "KAFKA_ENABLED"
	EnvKafkaReservationsTopic  = "KAFKA_RESERVATIONS_TOPIC"
	EnvKafkaConfirmationsTopic = "KAFKA_CONFIRMATIONS_TOPIC"
	EnvKafkaEventsTopic        = "KAFKA_EVENTS_TOPIC"
	EnvKafkaDLQTopic           = "KAFKA_DLQ_TOPIC"
	EnvKafkaGroupID            = "KAFKA_GROUP_ID"

	EnvSimRequesters     = "SIM_REQUESTERS"
	EnvSimDuration       = "SIM_DURATION"
	EnvSimReportInterval = "SIM_REPORT_INTERVAL"
	EnvSimConfirmRatio   = "SIM_CONFIRM_RATIO"
	EnvSimTargetURL      = "SIM_TARGET_URL"
	EnvSimTargetWait     = "SIM_TARGET_WAIT"
)
