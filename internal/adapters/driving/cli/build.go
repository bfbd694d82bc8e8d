package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
	"github.com/munidoc-labs/amtsrag/internal/logger"
)

var buildReset bool

var buildCmd = &cobra.Command{
	Use:   "build [path...]",
	Short: "Index documents from files or directories",
	Long: `Extracts, segments, embeds and indexes the given documents.
Directories are walked recursively; files with unsupported
extensions are skipped with a notice. Documents unreadable by both
the digital and the optical path are reported but do not abort the
build.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildReset, "reset", false, "clear the existing index before building")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	if buildReset {
		if err := a.store.Reset(ctx); err != nil {
			return fmt.Errorf("resetting index: %w", err)
		}
		logger.Info("existing index cleared")
	} else {
		if err := a.pipeline.Load(ctx); err != nil {
			return fmt.Errorf("loading existing index: %w", err)
		}
	}

	docs, skipped, err := collectDocuments(args)
	if err != nil {
		return err
	}
	for _, name := range skipped {
		cmd.Printf("Skipping unsupported file: %s\n", name)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no supported documents found")
	}

	report, err := a.pipeline.BuildIndex(ctx, docs)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	printReport(cmd, report)
	return nil
}

// collectDocuments reads the given paths into documents, walking
// directories recursively.
func collectDocuments(paths []string) ([]*domain.Document, []string, error) {
	var docs []*domain.Document
	var skipped []string

	addFile := func(path string) error {
		format, err := domain.ParseFormat(filepath.Ext(path))
		if err != nil {
			skipped = append(skipped, path)
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		docs = append(docs, &domain.Document{
			ID:        uuid.New().String(),
			Name:      filepath.Base(path),
			Format:    format,
			Content:   content,
			CreatedAt: time.Now(),
		})
		return nil
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, nil, fmt.Errorf("stating %s: %w", path, err)
		}

		if !info.IsDir() {
			if err := addFile(path); err != nil {
				return nil, nil, err
			}
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			return addFile(p)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}

	return docs, skipped, nil
}

func printReport(cmd *cobra.Command, report *domain.BuildReport) {
	cmd.Printf("Indexed %d documents (%d chunks) in %s\n",
		report.Documents, report.Chunks, report.Finished.Sub(report.Started).Round(time.Millisecond))
	if report.OCRDocuments > 0 {
		cmd.Printf("%d documents required optical recognition\n", report.OCRDocuments)
	}
	for _, warning := range report.Warnings {
		cmd.Printf("Warning: %s\n", warning)
	}
	for _, failure := range report.Failures {
		cmd.Printf("Failed: %s\n", failure.Error())
	}
}
