package kafka_config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Brokers:                   []string{"localhost:9092"},
		ProducerMaxAttempts:       DefaultProducerMaxAttempts,
		ProducerBatchTimeout:      DefaultProducerBatchTimeout,
		ProducerRequireAcks:       DefaultProducerRequireAcks,
		ProducerCompression:       DefaultProducerCompression,
		ConsumerStartOffset:       DefaultConsumerStartOffset,
		ConsumerMinBytes:          DefaultConsumerMinBytes,
		ConsumerMaxBytes:          DefaultConsumerMaxBytes,
		ConsumerMaxWait:           DefaultConsumerMaxWait,
		ConsumerCommitInterval:    DefaultConsumerCommitInterval,
		ConsumerHeartbeatInterval: DefaultConsumerHeartbeatInterval,
		ConsumerSessionTimeout:    DefaultConsumerSessionTimeout,
		ConsumerRebalanceTimeout:  DefaultConsumerRebalanceTimeout,
		ConsumerMaxRetries:        DefaultConsumerMaxRetries,
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "broker-a:9092, broker-b:9092")

	cfg := Load()
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "broker-b:9092" {
		t.Errorf("Brokers = %v", cfg.Brokers)
	}
	if problems := cfg.Validate(); len(problems) != 0 {
		t.Errorf("default config has problems: %v", problems)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty broker", func(c *Config) { c.Brokers = []string{""} }, "Broker 0"},
		{"bad compression", func(c *Config) { c.ProducerCompression = "brotli" }, "ProducerCompression"},
		{"bad acks", func(c *Config) { c.ProducerRequireAcks = 2 }, "ProducerRequireAcks"},
		{"bad start offset", func(c *Config) { c.ConsumerStartOffset = -3 }, "ConsumerStartOffset"},
		{"negative commit interval", func(c *Config) { c.ConsumerCommitInterval = -time.Second }, "ConsumerCommitInterval"},
		{"negative retries", func(c *Config) { c.ConsumerMaxRetries = -1 }, "ConsumerMaxRetries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			problems := cfg.Validate()
			if len(problems) != 1 || !strings.Contains(problems[0], tt.want) {
				t.Errorf("Validate() = %v, want one problem mentioning %s", problems, tt.want)
			}
		})
	}
}
