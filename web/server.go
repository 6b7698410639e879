// Package web exposes the exporter over http: draw listing, export
// requests, artifact download and websocket progress.
package web

import (
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/gpuix/drawcall_exporter/capture"
	"github.com/gpuix/drawcall_exporter/config"
	"github.com/gpuix/drawcall_exporter/logger"
)

// Server bridges http handlers to the replay worker queue. Handlers never
// touch the controller directly, they submit tasks and wait.
type Server struct {
	queue *capture.Queue
	cfg   *config.Config
}

func StartServer(addr string, queue *capture.Queue, cfg *config.Config) error {
	s := &Server{queue: queue, cfg: cfg}

	r := mux.NewRouter()
	r.HandleFunc("/json/draws", s.HandlerDraws)
	r.HandleFunc("/json/export/{start}/{end}", s.HandlerExportRange)
	r.HandleFunc("/dump/draw/{id}", s.HandlerDumpDraw)
	r.HandleFunc("/debug/state/{id}", s.HandlerDebugState)
	r.HandleFunc("/ws/status", s.HandlerStatusWs)

	h := handlers.RecoveryHandler()(r)
	h = handlers.LoggingHandler(os.Stdout, h)

	logger.Log.Info("starting server", zap.String("addr", addr))

	return http.ListenAndServe(addr, h)
}
