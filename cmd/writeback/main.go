package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"maps-api/internal/catalog"
	"maps-api/internal/config"
	"maps-api/internal/logging"
	"maps-api/internal/repository"
	"maps-api/internal/sink"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logging.Setup(config.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := pgxpool.New(ctx, config.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close()

	fields, err := catalog.Load(config.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load model catalog")
	}

	consumer := sink.NewConsumer(config.Kafka, repository.NewRepository(conn, fields))
	defer consumer.Close()

	if err := consumer.Run(ctx); err != nil {
		log.Error().Err(err).Msg("write-back consumer stopped")
		return
	}
	log.Info().Msg("write-back consumer stopped")
}
