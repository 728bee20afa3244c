package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/berfenger/hassbridge/internal/config"

	"github.com/asynkron/protoactor-go/actor"
	_ "github.com/joho/godotenv/autoload"
)

const DEFAULT_REQUEST_TIMEOUT = 30 * time.Second

type Server struct {
	port           uint
	httpLog        bool
	rootContext    *actor.RootContext
	masterActor    *actor.PID
	metricsHandler http.Handler
	requestTimeout time.Duration
}

func NewServer(cfg config.Config, rootContext *actor.RootContext, masterActor *actor.PID, metricsHandler http.Handler) *http.Server {
	NewServer := &Server{
		port:           cfg.Port,
		rootContext:    rootContext,
		masterActor:    masterActor,
		httpLog:        cfg.HttpLog,
		metricsHandler: metricsHandler,
		requestTimeout: DEFAULT_REQUEST_TIMEOUT,
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 45 * time.Second,
	}

	return server
}
