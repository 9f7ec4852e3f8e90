package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Novip1906/tasks-realtime/internal/auth"
	"github.com/Novip1906/tasks-realtime/internal/config"
	"github.com/Novip1906/tasks-realtime/internal/elasticsearch"
	"github.com/Novip1906/tasks-realtime/internal/events"
	"github.com/Novip1906/tasks-realtime/internal/files"
	"github.com/Novip1906/tasks-realtime/internal/handlers"
	"github.com/Novip1906/tasks-realtime/internal/kafka"
	"github.com/Novip1906/tasks-realtime/internal/middleware"
	"github.com/Novip1906/tasks-realtime/internal/realtime"
	"github.com/Novip1906/tasks-realtime/internal/service"
	"github.com/Novip1906/tasks-realtime/internal/storage"
	"github.com/Novip1906/tasks-realtime/pkg/logging"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

type Server struct {
	cfg            *config.Config
	log            *slog.Logger
	hs             *http.Server
	db             *storage.Storage
	eventsProducer *kafka.EventsProducer
	rdb            *redis.Client
}

func NewServer(cfg *config.Config, log *slog.Logger) *Server {
	db, err := storage.New(&cfg.DB, log)
	if err != nil {
		panic(err)
	}
	log.Info("connected to db", slog.String("driver", cfg.DB.Driver))

	disk, err := files.NewDiskStorage(".", cfg.Uploads.Dir)
	if err != nil {
		panic(err)
	}

	srv := &Server{cfg: cfg, log: log, db: db}

	registry := realtime.NewRegistry(cfg.Websocket.WriteTimeout, log)
	verifier := auth.NewVerifier(cfg.JWT.Secret, db)
	hub := realtime.NewHub(registry, verifier, cfg.Websocket.AllowedOrigins, cfg.Websocket.WriteTimeout, log)

	var sinks []events.Sink
	if cfg.Kafka.Enabled() {
		srv.eventsProducer = kafka.NewEventsProducer(&cfg.Kafka)
		sinks = append(sinks, srv.eventsProducer)
		log.Info("kafka events sink enabled", slog.String("topic", cfg.Kafka.EventsTopic))
	}
	if cfg.Elasticsearch.Enabled() {
		es, err := elasticsearch.NewClient(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Index, log)
		if err != nil {
			panic(err)
		}
		sinks = append(sinks, es)
		log.Info("elasticsearch sink enabled", slog.String("index", cfg.Elasticsearch.Index))
	}
	dispatcher := events.NewDispatcher(registry, log, sinks...)

	filesService := service.NewFilesService(db, disk)
	tasksService := service.NewTasksService(db, filesService, dispatcher)
	authService := service.NewAuthService(db, auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL))

	mux := http.NewServeMux()
	handlers.New(cfg, tasksService, filesService, authService, disk, db).
		Register(mux, middleware.AuthMiddleware(verifier))
	mux.Handle("GET "+cfg.Websocket.Path, hub)

	handler := http.Handler(mux)
	if cfg.Redis.Enabled() {
		srv.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := srv.rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn("redis unreachable, rate limiter will fail open", logging.Err(err))
		} else {
			log.Info("connected to redis")
		}
		handler = middleware.NewRateLimiter(srv.rdb, &cfg.RateLimiter).Middleware(log)(handler)
	}
	handler = middleware.LoggingMiddleware(log)(handler)

	srv.hs = &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return srv
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", slog.String("address", s.cfg.Address))
		errCh <- s.hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.hs.Shutdown(shutdownCtx)
}

func (s *Server) Close() {
	if s.eventsProducer != nil {
		if err := s.eventsProducer.Close(); err != nil {
			s.log.Error("kafka producer close", logging.Err(err))
		}
	}
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	if err := s.db.Close(); err != nil {
		s.log.Error("db close", logging.DbErr("Close", err))
	}
}
