package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dictachat/memcore/internal/config"
	"github.com/dictachat/memcore/internal/engine"
	"github.com/dictachat/memcore/internal/server"
	"github.com/dictachat/memcore/internal/store"
	"github.com/spf13/cobra"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.toml (optional)")
}

// buildEmbedder selects the embedding provider: Ollama when configured and
// reachable, the deterministic hash embedder otherwise.
func buildEmbedder(cfg config.EmbeddingConfig) engine.Embedder {
	if cfg.Provider != "hash" && engine.ProbeOllama(cfg.OllamaURL, cfg.Model) {
		fmt.Fprintf(os.Stderr, "  embedder: ollama (%s)\n", cfg.Model)
		return engine.NewOllamaEmbedder(cfg.OllamaURL, cfg.Model, cfg.Dimensions)
	}
	fmt.Fprintf(os.Stderr, "  embedder: hash (fallback)\n")
	return engine.NewHashEmbedder(cfg.Dimensions)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}

	// Resolve database path
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	eng := engine.New(buildEmbedder(cfg.Embedding))
	eng.Tracker().SetEnabled(cfg.Memory.LearningEnabled)
	defer eng.Stop()

	// Restore persisted fragments before accepting traffic.
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		loaded, err := db.LoadSnapshot(ctx, eng)
		cancel()
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if loaded > 0 {
			fmt.Fprintf(os.Stderr, "  restored %d fragments\n", loaded)
		}
	}

	eng.StartSweepTimer(time.Duration(cfg.Memory.SweepIntervalSec) * time.Second)

	res := engine.NewResilient(eng,
		cfg.Memory.MaxWriteAttempts,
		time.Duration(cfg.Memory.ReadTimeoutMs)*time.Millisecond)

	srv := server.New(res, db, cfg.Memory.TokenBudget, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "memcore serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	if err := db.SaveSnapshot(eng); err != nil {
		fmt.Fprintf(os.Stderr, "save snapshot: %v\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
