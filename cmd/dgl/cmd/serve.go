package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/msto63/dglrechner/internal/render"
	"github.com/msto63/dglrechner/internal/server"
	"github.com/msto63/dglrechner/pkg/core/logging"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Startet die HTTP-API",
	Long: `Startet die HTTP-API des DGL-Rechners.

Endpunkte:
  POST /api/v1/normalize     - kanonische Form (optional mit Regelverlauf)
  POST /api/v1/solve         - Gleichung lösen
  GET  /api/v1/render.png    - Vorschau als PNG (?expr= oder ?markup=)
  GET  /api/v1/history       - Verlauf
  WS   /api/v1/preview/ws    - Live-Vorschau
  GET  /health               - Gesundheitsstatus

Eine laufende Instanz kann anderen als Solver dienen
(solver.backend = "http", solver.url = "http://host:8080").`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port (überschreibt die Config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("Config nicht geladen", err)
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if err := setupLogging(cfg, false); err != nil {
		return err
	}
	defer logging.Close()
	log := logging.New("serve")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := server.Deps{}

	rt, s, err := startSolver(ctx, cfg)
	if rt == nil {
		printError("Solver-Backend ungültig", err)
		return err
	}
	if err != nil {
		fmt.Printf("  [!] Solver nicht verfügbar: %v\n", err)
	}
	deps.Runtime = rt
	deps.Solver = s

	png, err := newPNGRenderer(cfg)
	if err != nil {
		printError("Schrift nicht geladen", err)
		return err
	}
	renderer := render.NewCachedRenderer(png, cacheConfig(cfg))
	defer renderer.Close()
	deps.Renderer = renderer

	store, err := openHistory(cfg)
	if err != nil {
		fmt.Printf("  [!] Verlauf nicht verfügbar: %v\n", err)
	} else if store != nil {
		defer store.Close()
		deps.History = store
	}

	if deps.Keypad, err = loadKeypad(cfg); err != nil {
		printError("Tastenfeld nicht geladen", err)
		return err
	}

	srv := server.New(server.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout.Duration,
		WriteTimeout:   cfg.Server.WriteTimeout.Duration,
		MaxRequestSize: cfg.Server.MaxRequestSize,
	}, deps, log)

	fmt.Println("dglrechner API")
	fmt.Println("==============")
	fmt.Printf("  [+] http://%s\n", srv.Address())
	fmt.Println()
	fmt.Println("Ctrl+C zum Beenden")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		printError("Server beendet", err)
		return err
	}
	fmt.Println("Server gestoppt.")
	return nil
}
