package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/bradsaid/pdf-merger/internal/config"
	"github.com/bradsaid/pdf-merger/internal/download"
	"github.com/bradsaid/pdf-merger/internal/logging"
	"github.com/bradsaid/pdf-merger/internal/merge"
	"github.com/bradsaid/pdf-merger/internal/preview"
	"github.com/bradsaid/pdf-merger/internal/workspace"
)

// ---- flags ----

var (
	configFlag   = flag.String("config", "", "YAML config file")
	addrFlag     = flag.String("addr", "", "http listen address (e.g. :8080), overrides config")
	logLevelFlag = flag.String("log-level", "", "debug, info, warn or error, overrides config")
	manifestFlag = flag.String("manifest", "", "JSON or JSONL list of {path,name,type} inputs")
	outFlag      = flag.String("o", "", "merge the inputs into this file and exit")
)

func main() {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		_, _ = out.Write([]byte("usage: pdf-merger [flags] [files...]\n"))
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger.Sugar()); err != nil {
		logger.Error("exit", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return cfg, err
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}
	if *logLevelFlag != "" {
		cfg.Log.Level = *logLevelFlag
	}
	cfg.Merge.OutputName = outputName(cfg.Merge.OutputName)
	return cfg, cfg.Validate()
}

func newWorkspace(cfg config.Config, log *zap.SugaredLogger) *workspace.Workspace {
	opts := preview.Options{
		BoxWidth:  cfg.Preview.BoxWidth,
		BoxHeight: cfg.Preview.BoxHeight,
		PDFWidth:  cfg.Preview.PDFWidth,
		Workers:   cfg.Preview.Workers,
	}
	board := preview.NewBoard(preview.NewRenderer(preview.Fitz{}, opts), opts, log)
	engine := merge.NewEngine(merge.NewPDFCPU(cfg.Merge.PageWidth, cfg.Merge.PageHeight), log)
	return workspace.New(cfg.MaxFiles, board, engine, log)
}

func run(cfg config.Config, log *zap.SugaredLogger) error {
	// pdfcpu must not create or read a per-user config directory.
	pdfapi.DisableConfigDir()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws := newWorkspace(cfg, log)

	raw, err := loadInputs(*manifestFlag, flag.Args())
	if err != nil {
		return err
	}
	if len(raw) > 0 {
		res, err := ws.Add(ctx, raw)
		if notice := ws.NoticeFor(err); notice != "" {
			log.Warnw("[files] "+notice, "added", len(res.Added), "rejected", res.Rejected, "dropped", res.Dropped)
		}
	}

	if *outFlag != "" {
		return runBatch(ctx, ws, *outFlag, log)
	}
	return serve(ctx, cfg, ws, log)
}

func runBatch(ctx context.Context, ws *workspace.Workspace, outPath string, log *zap.SugaredLogger) error {
	out, err := ws.Merge(ctx)
	if err != nil {
		if notice := ws.NoticeFor(err); notice != "" {
			return errors.Wrap(err, notice)
		}
		return err
	}
	if err := download.SaveFile(outPath, out); err != nil {
		return err
	}
	log.Infow("[merge] saved", "path", outPath, "files", ws.Len(), "bytes", len(out))
	return nil
}

func serve(ctx context.Context, cfg config.Config, ws *workspace.Workspace, log *zap.SugaredLogger) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	ln = netutil.LimitListener(ln, cfg.MaxConns)

	srv := &http.Server{
		Handler:           newRouter(ws, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnw("[http] shutdown", "error", err)
		}
	}()

	log.Infow("[http] listening", "addr", "http://"+ln.Addr().String(), "maxFiles", cfg.MaxFiles)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}
	log.Infow("[http] stopped")
	return nil
}
