package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Daskott/lifeline/server/auth/key"
	"github.com/Daskott/lifeline/server/cron"
	"github.com/Daskott/lifeline/server/logger"
	"github.com/Daskott/lifeline/server/relations"
	"github.com/Daskott/lifeline/server/reminders"
	"github.com/Daskott/lifeline/shared"
	"github.com/gorilla/mux"
)

var logg = logger.NewLogger()

type Server struct {
	router  *mux.Router
	manager *relations.Manager
	keyPair *key.KeyPair
}

// NewServer builds the HTTP API on top of 'deps'
func NewServer(deps *Dependencies, opts ...relations.ManagerOpt) *Server {
	server := &Server{
		manager: relations.NewManager(deps.Store, deps.Discovery, deps.Notifier, opts...),
		keyPair: deps.KeyPair,
	}
	server.router = server.routes()

	return server
}

func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(rw, r)
}

// Start runs the API & the scheduled jobs until SIGINT/SIGTERM
func Start(config *shared.ServerConfig, devMode bool) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := NewDependencies(ctx, config, devMode)
	fatalOnError(err)
	defer deps.Close()

	var scannerOpts []reminders.ScannerOpt
	if deps.SMS != nil {
		scannerOpts = append(scannerOpts, reminders.WithSMS(deps.SMS))
	}
	scanner := reminders.NewScanner(deps.Store, deps.Notifier, reminders.ConfigFrom(config), scannerOpts...)

	scheduler := cron.NewScheduler(config.Lifeline.Cron.TimeZone)
	fatalOnError(scheduleJobs(ctx, scheduler, config, scanner, deps.Backup))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%v", config.Lifeline.Listener.Port),
		Handler:      NewServer(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	scheduler.Start()
	go serve(httpServer)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	cancel()
	cleanup(scheduler, httpServer)
}
