package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"flag"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"supremacy.ai/internal/persistence/indexdb"
	turnlog "supremacy.ai/internal/persistence/log"
	"supremacy.ai/internal/sim/catalogs"
	"supremacy.ai/internal/sim/combat"
	"supremacy.ai/internal/sim/engine"
	"supremacy.ai/internal/sim/scenario"
	"supremacy.ai/internal/sim/scripting"
	"supremacy.ai/internal/sim/session"
	"supremacy.ai/internal/sim/tuning"
	"supremacy.ai/internal/transport/ws"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		gameID       = flag.String("game", "", "game id (default: random)")
		configDir    = flag.String("configs", "./configs", "config directory")
		scenarioPath = flag.String("scenario", "", "path to scenario.yaml (default: <configs>/scenario.yaml)")
		eventsPath   = flag.String("events", "", "path to events.yaml (default: <configs>/events.yaml)")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite turn index")
		turns        = flag.Int("turns", 0, "run this many turns headless and exit (0 serves players)")
		devLog       = flag.Bool("dev_log", false, "human readable logs")
		enablePprof  = flag.Bool("pprof", false, "serve /debug/pprof")
	)
	flag.Parse()

	logger := newLogger(*devLog)
	defer func() { _ = logger.Sync() }()

	tp := orDefault(*tuningPath, filepath.Join(*configDir, "tuning.yaml"))
	tune, err := tuning.Load(tp)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatal("load tuning", zap.String("path", tp), zap.Error(err))
		}
		logger.Warn("tuning not found; using defaults", zap.String("path", tp))
		tune = tuning.Defaults()
	}

	cats, err := catalogs.Load(filepath.Join(*configDir, "catalogs"))
	if err != nil {
		logger.Fatal("load catalogs", zap.Error(err))
	}

	ep := orDefault(*eventsPath, filepath.Join(*configDir, "events.yaml"))
	events, err := scripting.Load(ep, logger.Named("scripting"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatal("load scripted events", zap.String("path", ep), zap.Error(err))
		}
		logger.Warn("no scripted events", zap.String("path", ep))
	}

	resolver := combat.NewAutoResolver(logger.Named("combat"))
	eng := engine.New(engine.Options{
		Logger:   logger.Named("engine"),
		Tuning:   tune,
		Events:   events,
		Resolver: resolver,
	})

	sp := orDefault(*scenarioPath, filepath.Join(*configDir, "scenario.yaml"))
	scen, err := scenario.Load(sp)
	if err != nil {
		logger.Fatal("load scenario", zap.String("path", sp), zap.Error(err))
	}
	g, _, err := scen.Build(cats.Designs, eng.DiplomacySettings())
	if err != nil {
		logger.Fatal("build scenario", zap.Error(err))
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := eng.DoPreGameSetup(ctx, g); err != nil {
		logger.Fatal("pre-game setup", zap.Error(err))
	}

	id := strings.TrimSpace(*gameID)
	gameDir := filepath.Join(*dataDir, "games", orDefault(id, "default"))
	if err := os.MkdirAll(gameDir, 0o755); err != nil {
		logger.Fatal("create data dir", zap.Error(err))
	}

	turnLog := turnlog.NewTurnLogger(gameDir)
	defer turnLog.Close()
	sitRepLog := turnlog.NewSitRepLogger(gameDir)
	defer sitRepLog.Close()
	opts := session.Options{
		ID:            id,
		Logger:        logger.Named("session"),
		Game:          g,
		Engine:        eng,
		Resolver:      resolver,
		Catalogs:      cats,
		TuningDigest:  fileDigest(tp),
		EventsDigest:  fileDigest(ep),
		TurnLoggers:   []session.TurnLogger{turnLog},
		SitRepLoggers: []session.SitRepLogger{sitRepLog},
	}

	if !*disableDB {
		idx, err := indexdb.OpenSQLite(filepath.Join(gameDir, "index", "game.sqlite"))
		if err != nil {
			logger.Fatal("open turn index", zap.Error(err))
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(filepath.Join(*configDir, "catalogs"), cats, tune); err != nil {
			logger.Warn("index catalogs", zap.Error(err))
		}
		opts.TurnLoggers = append(opts.TurnLoggers, idx)
		opts.SitRepLoggers = append(opts.SitRepLoggers, idx)
	}

	sess, err := session.New(opts)
	if err != nil {
		logger.Fatal("create session", zap.Error(err))
	}

	if *turns > 0 {
		runHeadless(ctx, sess, *turns, logger)
		return
	}

	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	wsSrv := ws.NewServer(sess, logger.Named("ws"))
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	mux.HandleFunc("/admin/v1/status", wsSrv.StatusHandler())
	if *enablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		select {
		case <-ctx.Done():
		case err := <-runErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("session stopped", zap.Error(err))
			}
		}
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Info("listening", zap.String("addr", *addr), zap.String("session", sess.ID()), zap.Int("turn", g.TurnNumber))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("ListenAndServe", zap.Error(err))
	}
	sess.Stop()
	<-sess.Done()
}

func runHeadless(ctx context.Context, sess *session.Session, n int, logger *zap.Logger) {
	start := time.Now()
	for i := 0; i < n; i++ {
		turn, digest, err := sess.StepOnce(ctx)
		if err != nil {
			logger.Error("turn aborted", zap.Int("turn", turn), zap.Error(err))
			return
		}
		logger.Info("turn", zap.Int("turn", turn), zap.String("digest", digest))
	}
	logger.Info("headless run finished", zap.Int("turns", n), zap.Duration("elapsed", time.Since(start)))
}

func newLogger(dev bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewExample()
	}
	return l
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// fileDigest is the sha256 of a config file, or "" when it cannot be read.
func fileDigest(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
