package main

import (
	"context"

	"slotkeeper/internal/reservations/events"
	"slotkeeper/internal/reservations/handler"
	"slotkeeper/internal/reservations/ingest"
	"slotkeeper/internal/reservations/repository"
	"slotkeeper/internal/reservations/service"
	"slotkeeper/internal/reservations/stats"
	"slotkeeper/pkg/app"
	"slotkeeper/pkg/config"
	"slotkeeper/pkg/kafka"
	kafka_middleware "slotkeeper/pkg/kafka/middleware"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	defer cfg.GracefulShutdown()

	if cfg.MongoEnabled {
		cfg.SetMongo()
	}
	if cfg.RedisEnabled {
		cfg.SetRedis()
	}

	recorder := initStats(cfg)
	sinks := []events.Sink{events.NewStatsSink(recorder)}
	if cfg.MongoEnabled {
		sinks = append(sinks, events.NewJournalSink(repository.NewMongoBookingJournal(cfg)))
	}

	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		producer = initProducer(cfg)
		defer producer.Close()
		sinks = append(sinks, events.NewKafkaSink(producer))
	}

	dispatcher := events.NewDispatcher(cfg, sinks...)
	engine := service.NewEngine(cfg, service.SystemClock(), dispatcher)

	application := app.NewApplication(cfg)
	application.SetApp(handler.NewReservationHandler(engine, recorder, cfg.Log), cfg.Client)
	application.AddWorker("engine", func(ctx context.Context) error {
		return dispatcher.RunWith(ctx, engine.Run)
	})
	if cfg.KafkaEnabled {
		application.AddWorker("ingest", initIngestor(cfg, engine).Run)
	}

	cfg.Log.Info("Starting reservations service", "slots", cfg.SlotCount)
	if err := application.Run(); err != nil {
		cfg.Log.Error("Reservations service stopped with error", "error", err)
		return
	}
	cfg.Log.Info("Reservations service stopped")
}

func initStats(cfg *config.Config) stats.Recorder {
	if cfg.RedisEnabled {
		cfg.Log.Info("Recording stats in Redis", "prefix", cfg.RedisStatsPrefix)
		return stats.NewRedisStore(cfg.Client.Redis,
			stats.WithPrefix(cfg.RedisStatsPrefix),
			stats.WithTTL(cfg.RedisStatsTTL),
		)
	}
	return stats.NewMemoryStore()
}

func initProducer(cfg *config.Config) *kafka.Producer {
	producer, err := kafka.NewProducer(cfg.Kafka, cfg.KafkaEventsTopic, cfg.KafkaDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if cfg.Kafka.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}
	return producer
}

func initIngestor(cfg *config.Config, engine *service.Engine) *ingest.Ingestor {
	reservations, err := kafka.NewConsumer(cfg.Kafka, cfg.KafkaReservationsTopic, cfg.KafkaGroupID, cfg.KafkaDLQTopic,
		ingest.ReservationHandler(engine, cfg.Log), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create reservations consumer", "error", err)
	}
	confirmations, err := kafka.NewConsumer(cfg.Kafka, cfg.KafkaConfirmationsTopic, cfg.KafkaGroupID, cfg.KafkaDLQTopic,
		ingest.ConfirmationHandler(engine, cfg.Log), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create confirmations consumer", "error", err)
	}

	if cfg.Kafka.EnableMiddleware {
		for _, c := range []*kafka.Consumer{reservations, confirmations} {
			c.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		}
	}
	return ingest.NewIngestor(cfg.Log, reservations, confirmations)
}
