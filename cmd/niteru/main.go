// Package main is the niteru CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/niteru/internal/config"
	"github.com/hyperjump/niteru/internal/embedding"
	"github.com/hyperjump/niteru/internal/models"
	"github.com/hyperjump/niteru/internal/server"
	"github.com/hyperjump/niteru/internal/vector"
	"github.com/hyperjump/niteru/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/niteru/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. When neither exists, built-in defaults apply.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback)
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "insert":
		runInsert()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "demo":
		runDemo()
	case "version", "--version", "-v":
		fmt.Printf("niteru version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`niteru - in-memory vector similarity search

Usage:
  niteru server [-config path] [-debug]    start the HTTP server
  niteru insert [-server url] [-id uuid] <embedding>
                                           store an embedding (JSON array)
  niteru search [-server url] [-limit n] <embedding>
                                           rank stored embeddings against a query
  niteru status [-server url]              show store size and configuration
  niteru demo [-dimensions d] [-top n] [-seed s] [-phrase text]
                                           insert random embeddings and query them
  niteru version                           print version
  niteru help                              print this help
`)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := vector.NewStore(cfg.Store.Dimensions)
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	srv := server.NewServer(store, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// parseEmbedding parses the positional args as a JSON array of numbers, so
// both "niteru search [0.1,0.2]" and "niteru search 0.1, 0.2" work.
func parseEmbedding(args []string) ([]float32, error) {
	raw := strings.TrimSpace(strings.Join(args, " "))
	if raw == "" {
		return nil, fmt.Errorf("embedding is required")
	}
	if !strings.HasPrefix(raw, "[") {
		raw = "[" + raw + "]"
	}
	var emb []float32
	if err := json.Unmarshal([]byte(raw), &emb); err != nil {
		return nil, fmt.Errorf("invalid embedding %q: %w", raw, err)
	}
	if len(emb) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	return emb, nil
}

func runInsert() {
	fs := flag.NewFlagSet("insert", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	id := fs.String("id", "", "vector UUID (assigned by the server when empty)")
	_ = fs.Parse(os.Args[2:])

	emb, err := parseEmbedding(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := postViaHTTP(*serverURL, "/api/v1/vectors", models.UpsertRequest{ID: *id, Embedding: emb}, &out); err != nil {
		fmt.Fprintf(os.Stderr, "Insert failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s %s\n", out.Status, out.ID)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	limit := fs.Int("limit", 10, "number of results")
	_ = fs.Parse(os.Args[2:])

	emb, err := parseEmbedding(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	var resp models.SearchResponse
	if err := postViaHTTP(*serverURL, "/api/v1/search", models.SearchQuery{Embedding: emb, Limit: *limit}, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if resp.Total == 0 {
		fmt.Println("No results.")
		return
	}
	for _, r := range resp.Results {
		fmt.Printf("%2d. %s  score=%.4f\n", r.Rank, r.ID, r.Score)
	}
	fmt.Printf("%d results in %dms\n", resp.Total, resp.QueryTime)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "server returned %d: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}
	fmt.Println(strings.TrimSpace(string(body)))
}

// runDemo exercises the engine end to end without a server: one random
// embedding per word of the phrase is stored, then a random query embedding
// is ranked against them.
func runDemo() {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	dimensions := fs.Int("dimensions", 768, "embedding dimension")
	top := fs.Int("top", 3, "number of results to print")
	seed := fs.Int64("seed", 0, "random seed (0 = time-based)")
	phrase := fs.String("phrase", "the quick brown fox jumps over the lazy dog", "one embedding is stored per word")
	_ = fs.Parse(os.Args[2:])

	var rng *rand.Rand
	if *seed != 0 {
		rng = rand.New(rand.NewSource(*seed))
	}
	var source embedding.Source = embedding.NewRandomSource(*dimensions, rng)

	store, err := vector.NewStore(source.Dimensions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	for range strings.Fields(*phrase) {
		if err := store.Insert(uuid.New(), source.Embedding()); err != nil {
			fmt.Fprintf(os.Stderr, "insert: %v\n", err)
			os.Exit(1)
		}
	}

	matches, err := store.TopN(source.Embedding(), *top)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("The %d most similar vectors:\n", len(matches))
	for _, m := range matches {
		fmt.Printf("UUID: %s, similarity: %.4f\n", m.ID, m.Score)
	}
}

func postViaHTTP(serverURL, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := http.Post(serverURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
