// Package cli implements the command-line interface. It is a
// driving adapter: commands wire adapters into the pipeline and
// call the driving ports, nothing more.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/munidoc-labs/amtsrag/internal/adapters/driven/embedding/openai"
	"github.com/munidoc-labs/amtsrag/internal/adapters/driven/index/bm25"
	"github.com/munidoc-labs/amtsrag/internal/adapters/driven/index/flat"
	"github.com/munidoc-labs/amtsrag/internal/adapters/driven/llm/groq"
	"github.com/munidoc-labs/amtsrag/internal/adapters/driven/ocr/tesseract"
	"github.com/munidoc-labs/amtsrag/internal/adapters/driven/storage/sqlite"
	"github.com/munidoc-labs/amtsrag/internal/config"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driven"
	"github.com/munidoc-labs/amtsrag/internal/core/services"
	"github.com/munidoc-labs/amtsrag/internal/extractors"
	"github.com/munidoc-labs/amtsrag/internal/extractors/docx"
	"github.com/munidoc-labs/amtsrag/internal/extractors/pdf"
	"github.com/munidoc-labs/amtsrag/internal/extractors/plaintext"
	"github.com/munidoc-labs/amtsrag/internal/extractors/xlsx"
	"github.com/munidoc-labs/amtsrag/internal/logger"
	"github.com/munidoc-labs/amtsrag/internal/segmenter"
)

var (
	cfgPath string
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "amtsrag",
	Short: "Grounded question answering over municipal documents",
	Long: `Amtsrag indexes municipal documents (statutes, fee schedules,
council minutes, notices) and answers questions about them with
citations back to the exact passages the answer came from.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(verbose)
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.amtsrag/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the config file. A missing default file is not
// an error; defaults plus environment credentials are enough to run.
func loadConfig() error {
	path := cfgPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			candidate := filepath.Join(home, ".amtsrag", "config.toml")
			if _, statErr := os.Stat(candidate); statErr == nil {
				path = candidate
			}
		}
	}

	if path == "" {
		cfg = config.Default()
		applyEnvCredentials(cfg)
		return cfg.Validate()
	}

	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	applyEnvCredentials(loaded)
	cfg = loaded
	return nil
}

// applyEnvCredentials lets environment variables supply or override
// API credentials so keys stay out of config files.
func applyEnvCredentials(c *config.Config) {
	if v := os.Getenv("AMTSRAG_EMBEDDING_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("AMTSRAG_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
}

// app bundles the wired pipeline with the resources the commands
// need direct access to.
type app struct {
	pipeline *services.DocumentPipeline
	store    *sqlite.Store
	registry *extractors.Registry
}

// newApp wires adapters and services from the loaded config.
// Embedding and LLM providers are optional; commands that need them
// fail with a clear error instead of at wiring time.
func newApp() (*app, error) {
	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	ocr := tesseract.New(tesseract.Config{
		TesseractPath: cfg.Extraction.TesseractPath,
		Languages:     cfg.Extraction.Languages,
	})

	registry, err := extractors.NewRegistry(
		[]driven.Extractor{pdf.New(), docx.New(), xlsx.New(), plaintext.New()},
		extractors.WithOCR(ocr),
		extractors.WithMinDirectChars(cfg.Extraction.MinDirectChars),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	seg := newSegmenter()

	var embedder driven.EmbeddingService
	dimensions := 1536
	if cfg.Embedding.APIKey != "" {
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:  cfg.Embedding.APIKey,
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("wiring embedding service: %w", err)
		}
		embedder = svc
		dimensions = svc.Dimensions()
	} else {
		logger.Warn("no embedding credentials, retrieval degrades to keyword-only")
	}

	dense, err := flat.New(dimensions)
	if err != nil {
		store.Close()
		return nil, err
	}
	sparse := bm25.New()

	retriever := services.NewHybridRetriever(embedder, dense, sparse, store,
		services.WithFusionWeights(cfg.Retrieval.DenseWeight, cfg.Retrieval.SparseWeight),
		services.WithOverfetchFactor(cfg.Retrieval.OverfetchFactor),
	)

	var llm driven.LLMService
	if cfg.LLM.APIKey != "" {
		svc, err := groq.NewLLMService(groq.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.Generation.Timeout,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("wiring LLM service: %w", err)
		}
		llm = svc
	}

	generator := services.NewAnswerGenerator(llm,
		services.WithMaxTokens(cfg.Generation.MaxTokens),
		services.WithTopP(cfg.Generation.TopP),
		services.WithContextBudget(cfg.Generation.ContextBudget),
		services.WithRefusalMessage(cfg.Generation.RefusalMessage),
	)

	pipeline := services.NewDocumentPipeline(
		registry, seg, embedder, dense, sparse, store, retriever, generator,
		services.WithBuildWorkers(cfg.Extraction.BuildWorkers),
	)

	return &app{
		pipeline: pipeline,
		store:    store,
		registry: registry,
	}, nil
}

func newSegmenter() *segmenter.Segmenter {
	return segmenter.New(
		segmenter.WithMaxChunkSize(cfg.Segmenter.MaxChunkSize),
		segmenter.WithOverlap(cfg.Segmenter.ChunkOverlap),
	)
}

func (a *app) Close() {
	if err := a.pipeline.Close(); err != nil {
		logger.Warn("closing pipeline: %v", err)
	}
}
