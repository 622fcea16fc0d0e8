package main

import (
	"context"

	"toronet-wallet/internal/config"
	"toronet-wallet/internal/database"
	"toronet-wallet/internal/emitters"
	"toronet-wallet/internal/events"
	"toronet-wallet/internal/interfaces"
	"toronet-wallet/internal/logger"
)

// buildEmitter chains the event log with the optional Kafka topic and
// Postgres journal. The journal is nil unless enabled. The returned func
// releases whatever was opened.
func buildEmitter(ctx context.Context, cfg *config.Config) (interfaces.EventEmitter, *database.Journal, func()) {
	log := logger.GetLogger()
	var sinks events.Fanout
	var closers []func()
	var journal *database.Journal

	if cfg.Kafka.Enabled {
		kafka := emitters.NewKafkaEmitter(cfg.Kafka.BrokerAddress, cfg.Kafka.Topic, logger.Component("kafka"))
		sinks = append(sinks, kafka)
		closers = append(closers, func() {
			if err := kafka.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close Kafka writer")
			}
		})
		log.Info().Str("broker", cfg.Kafka.BrokerAddress).Str("topic", cfg.Kafka.Topic).Msg("Kafka emitter enabled")
	}

	if cfg.Database.Enabled {
		var err error
		journal, err = database.Open(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		if err := journal.RunMigrations(); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		sinks = append(sinks, &events.JournalEmitter{Journal: journal})
		closers = append(closers, func() {
			if err := journal.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close database")
			}
		})
		log.Info().Str("db", cfg.Database.DBName).Msg("Transaction journal enabled")
	}

	emitter := &events.LogEmitter{Logger: logger.Component("events")}
	if len(sinks) > 0 {
		emitter.WrappedEmitter = sinks
	}

	return emitter, journal, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}
