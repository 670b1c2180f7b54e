package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goldledger/internal/catalog"
	"goldledger/internal/config"
	"goldledger/internal/engine"
	"goldledger/internal/host"
	"goldledger/internal/ledger"
	"goldledger/internal/logging"
	"goldledger/internal/store"
	httptransport "goldledger/internal/transport/http"
	"goldledger/internal/ws"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)
	defer func() { _ = logging.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := store.OpenLedger(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("store init failed")
	}
	defer func() { _ = closeStore() }()
	led := ledger.New(st)

	janitor := ledger.NewJanitor(led, cfg.Store.Retention())
	if err := janitor.LoadRetention(ctx); err != nil {
		log.Warn().Err(err).Msg("load persisted retention failed; using configured value")
	}
	janitor.Start(ctx, cfg.Store.PurgeInterval())

	var cat *catalog.Catalog
	if cfg.Server.CatalogPath != "" {
		cat, err = catalog.Load(cfg.Server.CatalogPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Server.CatalogPath).Msg("catalog load failed")
		}
		log.Info().Int("items", cat.Len()).Msg("catalog loaded")
	}

	mirror := host.NewMirror(cat)
	loop := engine.NewLoop(cfg.Server.IngestBuffer)
	eng := engine.New(mirror, loop, led, engine.ConfigFrom(cfg.Engine))
	loop.Bind(eng.Dispatch)
	bridge := host.NewBridge(mirror, loop, eng)
	wsSrv := ws.NewServer(bridge, cfg.Server.WSMaxMessageKB)

	go watchLedger(ctx, led)

	r := httptransport.NewRouter(cfg.Server, led, janitor, bridge, wsSrv.HandleWS)
	httptransport.LogRoutes(r)
	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := loop.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Str("character", eng.Character()).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		wsSrv.Close()
		err := server.Shutdown(shutdownCtx)
		// settle the last open attribution before the loop goes away
		if ferr := loop.Call(shutdownCtx, eng.Flush); ferr != nil {
			log.Warn().Err(ferr).Msg("final flush skipped")
		}
		stopLoop()
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return
	}
	log.Info().Msg("server stopped")
}

func watchLedger(ctx context.Context, led *ledger.Ledger) {
	ch := led.Subscribe()
	defer led.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ch:
			log.Debug().
				Str("kind", string(t.Kind)).
				Int64("value", t.Value).
				Str("source", t.Source).
				Str("confidence", string(t.Confidence)).
				Msg("transaction recorded")
		}
	}
}
