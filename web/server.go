package web

import (
	"context"
	"log"

	"cloud.google.com/go/pubsub"
	"github.com/gin-gonic/gin"

	"traveleasy/config"
	db "traveleasy/db/db"
	"traveleasy/db/mem"
	"traveleasy/db/pg"
	"traveleasy/geo"
	"traveleasy/mq/gcppubsub"
	"traveleasy/mq/goch"
	"traveleasy/mq/mq"
	"traveleasy/mq/rabbit"
	"traveleasy/session"
	"traveleasy/trip"
)

// DBMode selects the trip store backend at startup.
type DBMode string

const (
	DBModeMemory   DBMode = "mem"
	DBModePostgres DBMode = "pg"
)

type ServiceConfig struct {
	IsDev  bool
	Port   string
	MqMode mq.Mode
	DBMode DBMode
}

func newStore(mode DBMode, cfg *config.Config) db.TripDBWrapper {
	switch mode {
	case DBModePostgres:
		gormDB, err := pg.InitPostgresGORM(pg.CreateDSN(cfg.DatabaseURL))
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		return pg.NewGORMTripDBWrapper(gormDB)
	default:
		return mem.NewInMemoryTripDBWrapper()
	}
}

func newFeeds(mode mq.Mode, cfg *config.Config) mq.TripFeedQueueWrapper {
	switch mode {
	case mq.ModeRabbitMQ:
		conn := rabbit.NewRabbitConnection(cfg.RabbitMQURL)
		wrapper, err := rabbit.NewRabbitTripFeedQueueWrapper(conn)
		if err != nil {
			log.Fatalf("Failed to set up rabbitmq queues: %v", err)
		}
		return wrapper
	case mq.ModeGCPPubSub:
		ctx := context.Background()
		client, err := pubsub.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("Failed to create pub/sub client: %v", err)
		}
		wrapper, err := gcppubsub.NewPubSubTripFeedQueueWrapper(ctx, client)
		if err != nil {
			log.Fatalf("Failed to set up pub/sub queues: %v", err)
		}
		return wrapper
	default:
		return goch.NewGoChanTripFeedQueueWrapper()
	}
}

func newRouter(h *handler, registry *session.Registry, store db.TripDBWrapper) *gin.Engine {
	r := gin.New()
	setupMiddlewares(r, registry, store)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := r.Group("/api/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/logout", h.logout)
	auth.POST("/password-reset", h.passwordReset)

	api := r.Group("/api")
	api.GET("/cities", h.searchCities)
	api.POST("/trips", h.createTrip)
	api.GET("/trips", h.listTrips)
	api.GET("/trips/:id", h.getTrip)
	api.PATCH("/trips/:id", h.updateTrip)
	api.POST("/trips/:id/days/:day/expenses", h.appendExpenses)

	ws := r.Group("/ws")
	ws.GET("/trips", h.wsListTrips)
	ws.GET("/trips/:id", h.wsWatchTrip)

	return r
}

func Serve(svcCfg ServiceConfig) {
	if !svcCfg.IsDev {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg := config.Load()
	store := newStore(svcCfg.DBMode, cfg)
	feeds := newFeeds(svcCfg.MqMode, cfg)
	registry := session.NewRegistry()

	h := &handler{
		sessions: session.NewService(session.NewRESTIdentityProvider(cfg.IdentityAPIURL, cfg.IdentityAPIKey), store, registry),
		trips:    trip.NewService(store, feeds),
		cities:   geo.NewClient(cfg.GeoapifyAPIURL, cfg.GeoapifyAPIKey),
	}

	r := newRouter(h, registry, store)

	port := svcCfg.Port
	if port == "" {
		port = cfg.Port
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start web server: %v", err)
	}
}
