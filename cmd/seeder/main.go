// Command seeder loads the scheme catalog from a JSON file, embeds each
// record, and writes it to the store. Seeding is skipped when the store
// already holds schemes unless --force is given.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/udyami-labs/maya/internal/config"
	dbRedis "github.com/udyami-labs/maya/internal/db/redis"
	"github.com/udyami-labs/maya/internal/domain"
	logpkg "github.com/udyami-labs/maya/internal/logger"
	"github.com/udyami-labs/maya/internal/metrics"
	schemerepo "github.com/udyami-labs/maya/internal/repository/scheme"
	googleaiProv "github.com/udyami-labs/maya/internal/transport/googleai"
	openaiProv "github.com/udyami-labs/maya/internal/transport/openai"
)

const embedRetries = 3

// schemeRecord mirrors one entry of data/schemes.json.
type schemeRecord struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Benefits    string            `json:"benefits"`
	Category    string            `json:"category"`
	Link        string            `json:"link,omitempty"`
	Eligibility map[string]string `json:"eligibility,omitempty"`
}

func main() {
	app := &cli.App{
		Name:  "seeder",
		Usage: "Embed and load the scheme catalog into the store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the schemes JSON file",
				Value:   "data/schemes.json",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Seed even when the store already holds schemes",
			},
		},
		Action: seedCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func seedCommand(c *cli.Context) error {
	_ = godotenv.Load()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterProviderMetrics()

	records, err := loadRecords(c.String("data"))
	if err != nil {
		return err
	}
	logger.Info("Loaded scheme catalog",
		zap.String("path", c.String("data")),
		zap.Int("count", len(records)))

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}

	repo := schemerepo.New(store)

	if !c.Bool("force") {
		count, err := repo.Count(ctx)
		if err != nil {
			return fmt.Errorf("count schemes: %w", err)
		}
		if count > 0 {
			logger.Info("Store already seeded, skipping", zap.Int("existing", count))
			return nil
		}
	}

	embedder, err := buildEmbedder(ctx, cfg.Provider, logger)
	if err != nil {
		return err
	}

	seeded := 0
	for _, rec := range records {
		scheme := domain.Scheme{
			ID:          rec.ID,
			Name:        rec.Name,
			Description: rec.Description,
			Benefits:    rec.Benefits,
			Category:    rec.Category,
			Link:        rec.Link,
			Eligibility: rec.Eligibility,
		}

		vec, err := embedWithRetry(ctx, embedder, scheme.EmbeddingText(), logger)
		if err != nil {
			// Store the record anyway; it stays invisible to retrieval
			// until a later run embeds it.
			logger.Warn("Embedding failed, storing without vector",
				zap.String("id", scheme.ID), zap.Error(err))
		}
		scheme.Embedding = vec

		if err := repo.Put(ctx, scheme); err != nil {
			return fmt.Errorf("store scheme %s: %w", scheme.ID, err)
		}
		seeded++
	}

	logger.Info("Seeding complete", zap.Int("seeded", seeded))
	return nil
}

func loadRecords(path string) ([]schemeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var records []schemeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s holds no schemes", path)
	}
	return records, nil
}

func buildEmbedder(ctx context.Context, cfg config.ProviderConfig, logger *zap.Logger) (domain.Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider api key is required for seeding")
	}
	if cfg.Backend == "openai" {
		return openaiProv.New(&openaiProv.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Dimensions:     cfg.Dimensions,
			Logger:         logger,
		}), nil
	}
	p, err := googleaiProv.New(ctx, &googleaiProv.Config{
		APIKey:         cfg.APIKey,
		ChatModel:      cfg.ChatModel,
		EmbeddingModel: cfg.EmbeddingModel,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return p, nil
}

func embedWithRetry(ctx context.Context, embedder domain.Embedder, text string, logger *zap.Logger) ([]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= embedRetries; attempt++ {
		result, err := embedder.Embed(ctx, text)
		if err == nil && len(result.Embedding) > 0 {
			return result.Embedding, nil
		}
		if err == nil {
			err = fmt.Errorf("empty embedding")
		}
		lastErr = err
		logger.Warn("Embed attempt failed",
			zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return nil, lastErr
}
