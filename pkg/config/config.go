package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"slotkeeper/pkg/client"
	kafka_config "slotkeeper/pkg/kafka/config"
	"slotkeeper/pkg/logger"
)

type Config struct {
	SlotCount        int
	HoldDuration     time.Duration
	ValidatorWorkers int
	ProcessorWorkers int
	LockTimeout      time.Duration
	SweepPeriod      time.Duration
	SweepLockTimeout time.Duration
	QueueSize        int
	EventBufferSize  int

	Port string

	RateLimitRPS   float64
	RateLimitBurst int

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	MongoEnabled      bool
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisEnabled     bool
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisStatsPrefix string
	RedisStatsTTL    time.Duration

	KafkaEnabled            bool
	KafkaReservationsTopic  string
	KafkaConfirmationsTopic string
	KafkaEventsTopic        string
	KafkaDLQTopic           string
	KafkaGroupID            string
	Kafka                   *kafka_config.Config

	SimRequesters     int
	SimDuration       time.Duration
	SimReportInterval time.Duration
	SimConfirmRatio   float64
	SimTargetURL      string
	SimTargetWait     time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the configuration from the environment, exits the process if it
// is invalid and logs the effective values.
func Load(serviceName string) *Config {
	cfg := FromEnv(serviceName)

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds the configuration without validating it.
func FromEnv(serviceName string) *Config {
	cfg := &Config{
		SlotCount:        getEnvNum(EnvSlotCount, DefaultSlotCount),
		HoldDuration:     getEnvDuration(EnvHoldDuration, DefaultHoldDuration),
		ValidatorWorkers: getEnvNum(EnvValidatorWorkers, DefaultValidatorWorkers),
		ProcessorWorkers: getEnvNum(EnvProcessorWorkers, DefaultProcessorWorkers),
		LockTimeout:      getEnvDuration(EnvLockTimeout, DefaultLockTimeout),
		SweepPeriod:      getEnvDuration(EnvSweepPeriod, DefaultSweepPeriod),
		SweepLockTimeout: getEnvDuration(EnvSweepLockTimeout, DefaultSweepLockTimeout),
		QueueSize:        getEnvNum(EnvQueueSize, DefaultQueueSize),
		EventBufferSize:  getEnvNum(EnvEventBufferSize, DefaultEventBufferSize),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRPS:   getEnvFloat(EnvRateLimitRPS, DefaultRateLimitRPS),
		RateLimitBurst: getEnvNum(EnvRateLimitBurst, DefaultRateLimitBurst),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		MongoEnabled:      getEnvBool(EnvMongoEnabled, DefaultMongoEnabled),
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisEnabled:     getEnvBool(EnvRedisEnabled, DefaultRedisEnabled),
		RedisAddr:        getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword:    getEnvStr(EnvRedisPassword, ""),
		RedisDB:          getEnvNum(EnvRedisDB, DefaultRedisDB),
		RedisStatsPrefix: getEnvStr(EnvRedisStatsPrefix, DefaultRedisStatsPrefix),
		RedisStatsTTL:    getEnvDuration(EnvRedisStatsTTL, DefaultRedisStatsTTL),

		KafkaEnabled:            getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		KafkaReservationsTopic:  getEnvStr(EnvKafkaReservationsTopic, DefaultKafkaReservationsTopic),
		KafkaConfirmationsTopic: getEnvStr(EnvKafkaConfirmationsTopic, DefaultKafkaConfirmationsTopic),
		KafkaEventsTopic:        getEnvStr(EnvKafkaEventsTopic, DefaultKafkaEventsTopic),
		KafkaDLQTopic:           getEnvStr(EnvKafkaDLQTopic, DefaultKafkaDLQTopic),
		KafkaGroupID:            getEnvStr(EnvKafkaGroupID, DefaultKafkaGroupID),

		SimRequesters:     getEnvNum(EnvSimRequesters, DefaultSimRequesters),
		SimDuration:       getEnvDuration(EnvSimDuration, DefaultSimDuration),
		SimReportInterval: getEnvDuration(EnvSimReportInterval, DefaultSimReportInterval),
		SimConfirmRatio:   getEnvFloat(EnvSimConfirmRatio, DefaultSimConfirmRatio),
		SimTargetURL:      getEnvStr(EnvSimTargetURL, ""),
		SimTargetWait:     getEnvDuration(EnvSimTargetWait, DefaultSimTargetWait),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if cfg.KafkaEnabled {
		cfg.Kafka = kafka_config.Load()
	}
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) Validate() error {
	var errors []string

	if cfg.SlotCount <= 0 {
		errors = append(errors, fmt.Sprintf("SlotCount must be positive, got: %d", cfg.SlotCount))
	}
	if cfg.HoldDuration <= 0 {
		errors = append(errors, fmt.Sprintf("HoldDuration must be positive, got: %s", cfg.HoldDuration))
	}
	if cfg.ValidatorWorkers <= 0 {
		errors = append(errors, fmt.Sprintf("ValidatorWorkers must be positive, got: %d", cfg.ValidatorWorkers))
	}
	if cfg.ProcessorWorkers <= 0 {
		errors = append(errors, fmt.Sprintf("ProcessorWorkers must be positive, got: %d", cfg.ProcessorWorkers))
	}
	if cfg.LockTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("LockTimeout must be positive, got: %s", cfg.LockTimeout))
	}
	if cfg.SweepPeriod <= 0 {
		errors = append(errors, fmt.Sprintf("SweepPeriod must be positive, got: %s", cfg.SweepPeriod))
	}
	if cfg.SweepLockTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("SweepLockTimeout must be positive, got: %s", cfg.SweepLockTimeout))
	} else if cfg.SweepLockTimeout > cfg.SweepPeriod {
		errors = append(errors, fmt.Sprintf("SweepLockTimeout (%s) must not exceed SweepPeriod (%s)", cfg.SweepLockTimeout, cfg.SweepPeriod))
	}
	if cfg.QueueSize <= 0 {
		errors = append(errors, fmt.Sprintf("QueueSize must be positive, got: %d", cfg.QueueSize))
	}
	if cfg.EventBufferSize <= 0 {
		errors = append(errors, fmt.Sprintf("EventBufferSize must be positive, got: %d", cfg.EventBufferSize))
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}
	if cfg.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRPS must be positive, got: %g", cfg.RateLimitRPS))
	}
	if cfg.RateLimitBurst <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitBurst must be positive, got: %d", cfg.RateLimitBurst))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
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

	if cfg.MongoEnabled {
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	}

	if cfg.RedisEnabled {
		if cfg.RedisAddr == "" {
			errors = append(errors, "RedisAddr cannot be empty")
		}
		if cfg.RedisDB < 0 {
			errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
		}
	}

	if cfg.KafkaEnabled {
		if cfg.KafkaReservationsTopic == "" || cfg.KafkaConfirmationsTopic == "" || cfg.KafkaEventsTopic == "" {
			errors = append(errors, "Kafka topics cannot be empty when Kafka is enabled")
		}
		if cfg.KafkaGroupID == "" {
			errors = append(errors, "KafkaGroupID cannot be empty when Kafka is enabled")
		}
		if cfg.Kafka != nil {
			errors = append(errors, cfg.Kafka.Validate()...)
		}
	}

	if cfg.SimRequesters < 0 {
		errors = append(errors, fmt.Sprintf("SimRequesters cannot be negative, got: %d", cfg.SimRequesters))
	}
	if cfg.SimReportInterval <= 0 {
		errors = append(errors, fmt.Sprintf("SimReportInterval must be positive, got: %s", cfg.SimReportInterval))
	}
	if cfg.SimTargetURL != "" && cfg.SimTargetWait <= 0 {
		errors = append(errors, fmt.Sprintf("SimTargetWait must be positive, got: %s", cfg.SimTargetWait))
	}
	if cfg.SimConfirmRatio < 0 || cfg.SimConfirmRatio > 1 {
		errors = append(errors, fmt.Sprintf("SimConfirmRatio must be between 0 and 1, got: %g", cfg.SimConfirmRatio))
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
		"slot_count", cfg.SlotCount,
		"hold_duration", cfg.HoldDuration,
		"validator_workers", cfg.ValidatorWorkers,
		"processor_workers", cfg.ProcessorWorkers,
		"lock_timeout", cfg.LockTimeout,
		"sweep_period", cfg.SweepPeriod,
		"sweep_lock_timeout", cfg.SweepLockTimeout,
		"queue_size", cfg.QueueSize,
		"event_buffer_size", cfg.EventBufferSize,
		"port", cfg.Port,
		"rate_limit_rps", cfg.RateLimitRPS,
		"rate_limit_burst", cfg.RateLimitBurst,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"mongo_enabled", cfg.MongoEnabled,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"redis_enabled", cfg.RedisEnabled,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_reservations_topic", cfg.KafkaReservationsTopic,
		"kafka_confirmations_topic", cfg.KafkaConfirmationsTopic,
		"kafka_events_topic", cfg.KafkaEventsTopic,
	)
	if cfg.Kafka != nil {
		cfg.Kafka.LogConfiguration(cfg.Log)
	}
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

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}
