package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dictachat/memcore/internal/config"
	"github.com/dictachat/memcore/internal/engine"
	"github.com/dictachat/memcore/internal/ingest"
	"github.com/dictachat/memcore/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of results")
	searchCmd.Flags().StringVarP(&searchContext, "context", "c", "", "Context hint boosting fragments that contain it")

	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "Source label stored on ingested fragments (defaults to the file name)")
}

// openDB opens the database for CLI commands.
func openDB() (*store.DB, error) {
	dbPath := os.Getenv("MEMCORE_DB")
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return store.Open(dbPath)
}

// loadEngine restores the persisted snapshot into a fresh engine. CLI
// commands use the hash embedder; Ollama detection is server-side only.
func loadEngine(ctx context.Context, db *store.DB) (*engine.Engine, error) {
	cfg := config.Default()
	eng := engine.New(engine.NewHashEmbedder(cfg.Embedding.Dimensions))
	if _, err := db.LoadSnapshot(ctx, eng); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return eng, nil
}

// --- search command ---

var (
	searchLimit   int
	searchContext string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored fragments",
	Long:  "Rank stored fragments against a query by vector similarity with graph, learning, and context boosts.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	eng, err := loadEngine(ctx, db)
	if err != nil {
		return err
	}
	defer eng.Stop()

	results, err := eng.Search(ctx, query, searchLimit, engine.SearchOpts{Context: searchContext})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	for i, r := range results {
		marker := ""
		if r.Boosted {
			marker = " *"
		}
		fmt.Printf("%d. [%.3f]%s %s (%s)\n", i+1, r.AdjustedScore, marker, r.Fragment.ID, r.Fragment.Meta.Tier)
		content := r.Fragment.Content
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		fmt.Printf("   %s\n\n", content)
	}

	return nil
}

// --- ingest command ---

var ingestSource string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.jsonl]",
	Short: "Import a JSONL conversation export",
	Long:  "Parse a JSONL conversation (role/content lines) and store each exchange as a working-tier fragment.",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	source := ingestSource
	if source == "" {
		source = path
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	eng, err := loadEngine(ctx, db)
	if err != nil {
		return err
	}
	defer eng.Stop()

	cfg := config.Default()
	res := engine.NewResilient(eng,
		cfg.Memory.MaxWriteAttempts,
		time.Duration(cfg.Memory.ReadTimeoutMs)*time.Millisecond)

	added, err := ingest.IngestFile(ctx, res, path, source)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	if err := db.SaveSnapshot(eng); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	fmt.Printf("Ingested %d exchanges from %s\n", added, path)
	return nil
}

// --- stats command ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show fragment counts per tier",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	records, err := db.AllFragments()
	if err != nil {
		return fmt.Errorf("list fragments: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No fragments stored yet.")
		return nil
	}

	byTier := map[string]int{}
	tombstones := 0
	for _, rec := range records {
		byTier[rec.Tier]++
		if rec.Status == string(engine.StatusTombstone) {
			tombstones++
		}
	}

	fmt.Printf("Fragments: %d\n", len(records))
	for _, tier := range []engine.Tier{engine.TierWorking, engine.TierHistory, engine.TierPatterns, engine.TierBooks, engine.TierMemoryBank} {
		if n := byTier[string(tier)]; n > 0 {
			fmt.Printf("  %-12s %d\n", tier, n)
		}
	}
	if tombstones > 0 {
		fmt.Printf("Tombstones: %d\n", tombstones)
	}
	return nil
}
