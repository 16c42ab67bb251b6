package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "maps-api/docs"
	"maps-api/internal/catalog"
	"maps-api/internal/config"
	"maps-api/internal/geocoding"
	"maps-api/internal/handler"
	"maps-api/internal/logging"
	"maps-api/internal/metrics"
	"maps-api/internal/middleware"
	"maps-api/internal/models"
	"maps-api/internal/repository"
	"maps-api/internal/service"
	"maps-api/internal/session"
	"maps-api/internal/sink"
	"maps-api/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// paidProvider pairs a (possibly cached) MapBox geocoder with its router.
type paidProvider struct {
	geocoding.Geocoder
	geocoding.Router
}

func main() {
	_ = godotenv.Load()

	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logging.Setup(config.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	conn, err := pgxpool.New(ctx, config.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close()

	fields, err := catalog.Load(config.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load model catalog")
	}

	tz, err := time.LoadLocation(config.Maps.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", config.Maps.Timezone).Msg("invalid timezone")
	}

	// Initialize layers
	repo := repository.NewRepository(conn, fields)

	var rdb *redis.Client
	if config.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, geocode cache may miss")
		}
	}

	free := geocoding.WithCache(
		geocoding.NewNominatimClient(config.Nominatim.BaseURL, config.Nominatim.UserAgent, config.Nominatim.Timeout),
		"nominatim", rdb, config.Redis.TTL)

	var paid service.PaidProvider
	var paidGeocoder geocoding.Geocoder
	if mb := geocoding.NewMapBoxClient(config.MapBox.Token, config.MapBox.BaseURL, config.MapBox.Referer, config.MapBox.Timeout); mb != nil {
		paidGeocoder = geocoding.WithCache(mb, "mapbox", rdb, config.Redis.TTL)
		paid = paidProvider{Geocoder: paidGeocoder, Router: mb}
	} else {
		log.Info().Msg("no mapbox token configured, using openstreetmap only")
	}

	var writer service.CoordinateWriter = repo
	if config.Writeback.Sink == "kafka" {
		publisher := sink.NewPublisher(config.Kafka)
		defer publisher.Close()
		writer = publisher
		log.Info().Str("topic", config.Kafka.Topic).Msg("writing coordinates to kafka")
	}

	var boundaries service.BoundaryReader
	if store, err := storage.NewBoundaryStore(config.Storage); err != nil {
		log.Warn().Err(err).Msg("boundary storage disabled")
	} else {
		boundaries = store
	}

	hub := session.NewHub(func(query models.Query, notify service.Notifier) *service.Model {
		return service.NewModel(service.ModelConfig{
			Records:  repo,
			Writer:   writer,
			Fields:   fields,
			Free:     free,
			Paid:     paid,
			Notify:   notify,
			Delay:    config.Maps.CoordinateFetchDelay,
			Timezone: tz,
			Lang:     config.Maps.DefaultLang,
			Base:     ctx,
			Query:    query,
		})
	})
	defer hub.Close()
	go hub.Run(ctx, config.SessionTTL, config.SessionTTL/2)

	geoCodeService := service.NewGeoCodeService(paidGeocoder, free)
	inspectionService := service.NewInspectionService(repo, boundaries, tz)
	harvestService := service.NewHarvestService(repo, tz)

	geoCodeHandler := handler.NewGeoCodeHandler(geoCodeService)
	mapsHandler := handler.NewMapsHandler(handler.HubSessions{Hub: hub})
	inspectionHandler := handler.NewInspectionHandler(inspectionService)
	harvestHandler := handler.NewHarvestHandler(harvestService)
	settingsHandler := handler.NewSettingsHandler(geocoding.TokenValidator{
		HTTPClient: &http.Client{Timeout: config.MapBox.Timeout},
		BaseURL:    config.MapBox.BaseURL,
		Referer:    config.MapBox.Referer,
	})

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/geocode", geoCodeHandler.GeoCode)

	auth := middleware.Auth(config.JWTSecret)
	mapsHandler.Register(r.Group("/maps", auth))
	r.GET("/maps/locations/:id/chart", auth, harvestHandler.Chart)
	r.GET("/geo/location/data", auth, inspectionHandler.EstateBoundaries)
	r.GET("/get/inspection/location/data", auth, inspectionHandler.InspectionReport)
	r.POST("/settings/mapbox-token/validate", auth, settingsHandler.ValidateMapBoxToken)

	srv := &http.Server{
		Addr:    config.ServerAddress,
		Handler: r,
		// Event streams end when the process is signalled.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()
	log.Info().Str("addr", config.ServerAddress).Msg("maps api listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
