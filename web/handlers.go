package web

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gpuix/drawcall_exporter/capture"
	"github.com/gpuix/drawcall_exporter/exporter"
	"github.com/gpuix/drawcall_exporter/logger"
	"github.com/gpuix/drawcall_exporter/status"
	"github.com/gpuix/drawcall_exporter/webutils"
)

type drawSummary struct {
	Id         uint32 `json:"id"`
	EventId    uint32 `json:"eventId"`
	NumIndices uint32 `json:"numIndices"`
	Indexed    bool   `json:"indexed"`
}

func (s *Server) HandlerDraws(w http.ResponseWriter, r *http.Request) {
	var summaries []drawSummary

	err := s.queue.Invoke("list draws", func(c capture.Controller) error {
		for _, draw := range capture.FlattenDraws(c.Draws()) {
			summaries = append(summaries, drawSummary{
				Id:         draw.Id,
				EventId:    draw.EventId,
				NumIndices: draw.NumIndices,
				Indexed:    draw.Indexed,
			})
		}
		return nil
	})
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Id < summaries[j].Id })
	webutils.WriteJson(w, summaries)
}

func (s *Server) HandlerExportRange(w http.ResponseWriter, r *http.Request) {
	startId, err := parseDrawId(mux.Vars(r)["start"])
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	endId, err := parseDrawId(mux.Vars(r)["end"])
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	// the handler goroutine plays the role of the UI thread: the export
	// runs on the replay worker and the result comes back over the
	// completion channel
	done := s.queue.AsyncInvoke("export range", func(c capture.Controller) error {
		return exporter.New(c, s.cfg.Export).ExportRange(r.Context(), startId, endId)
	})

	type exportResult struct {
		Result string `json:"result"`
	}
	if err := <-done; err != nil {
		webutils.WriteJson(w, &exportResult{Result: err.Error()})
		return
	}
	webutils.WriteJson(w, &exportResult{Result: "ok"})
}

func (s *Server) HandlerDumpDraw(w http.ResponseWriter, r *http.Request) {
	id, err := parseDrawId(mux.Vars(r)["id"])
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	tempDir, err := os.MkdirTemp("", "drawcall_export")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	defer os.RemoveAll(tempDir)

	cfg := s.cfg.Export
	cfg.OutputDir = tempDir
	cfg.SaveTextures = false
	cfg.DumpConstants = false

	var path string
	err = s.queue.Invoke("dump draw", func(c capture.Controller) error {
		draws := capture.FlattenDraws(c.Draws())
		draw, ok := draws[id]
		if !ok {
			return fmt.Errorf("drawcall %d not found", id)
		}
		var exportErr error
		path, exportErr = exporter.New(c, cfg).ExportDraw(draw)
		return exportErr
	})
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	defer f.Close()

	webutils.WriteFile(w, f, filepath.Base(path))
}

func (s *Server) HandlerDebugState(w http.ResponseWriter, r *http.Request) {
	id, err := parseDrawId(mux.Vars(r)["id"])
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	var dump string
	err = s.queue.Invoke("debug state", func(c capture.Controller) error {
		draws := capture.FlattenDraws(c.Draws())
		draw, ok := draws[id]
		if !ok {
			return fmt.Errorf("drawcall %d not found", id)
		}
		if err := c.SetFrameEvent(draw.EventId); err != nil {
			return err
		}
		state, err := c.PipelineState()
		if err != nil {
			return err
		}
		dump = spew.Sdump(draw, state)
		return nil
	})
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	webutils.WriteResult(w, []byte(dump))
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) HandlerStatusWs(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	status.NewClient(conn)
}

func parseDrawId(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("'%s' is not a drawcall id", s)
	}
	return uint32(id), nil
}
