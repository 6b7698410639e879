package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gpuix/drawcall_exporter/capture"
	"github.com/gpuix/drawcall_exporter/capture/dumpdriver"
	"github.com/gpuix/drawcall_exporter/config"
	"github.com/gpuix/drawcall_exporter/exporter"
	"github.com/gpuix/drawcall_exporter/logger"
	"github.com/gpuix/drawcall_exporter/web"
)

func main() {
	var configPath, addr, capturePath, outDir, format, exportRange string
	flag.StringVar(&configPath, "config", "", "Path to yaml config file")
	flag.StringVar(&addr, "i", "", "Address of server (overrides config)")
	flag.StringVar(&capturePath, "capture", "", "Path to capture dump zip")
	flag.StringVar(&outDir, "out", "", "Output directory")
	flag.StringVar(&format, "format", "", "Output format: ascii, binary, gltf")
	flag.StringVar(&exportRange, "export", "", "Export drawcall range 'start:end' and exit instead of serving")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if addr != "" {
		cfg.Server.Addr = addr
	}
	if capturePath != "" {
		cfg.Capture.Path = capturePath
	}
	if outDir != "" {
		cfg.Export.OutputDir = outDir
	}
	if format != "" {
		cfg.Export.Format = config.OutputFormat(format)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	defer logger.Sync()

	if cfg.Capture.Path == "" {
		flag.PrintDefaults()
		return
	}

	c, err := dumpdriver.Open(cfg.Capture.Path)
	if err != nil {
		logger.Log.Fatal("failed to open capture", zap.Error(err))
	}

	queue := capture.NewQueue(c)
	defer queue.Close()

	if exportRange != "" {
		startId, endId, err := parseRange(exportRange)
		if err != nil {
			logger.Log.Fatal("invalid export range", zap.Error(err))
		}
		err = queue.Invoke("batch export", func(c capture.Controller) error {
			return exporter.New(c, cfg.Export).ExportRange(context.Background(), startId, endId)
		})
		if err != nil {
			logger.Log.Fatal("export failed", zap.Error(err))
		}
		return
	}

	if err := web.StartServer(cfg.Server.Addr, queue, cfg); err != nil {
		logger.Log.Fatal("server failed", zap.Error(err))
	}
}

func parseRange(s string) (uint32, uint32, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("range %q is not in 'start:end' form", s)
	}
	start, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	end, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("range end %d before start %d", end, start)
	}
	return uint32(start), uint32(end), nil
}
