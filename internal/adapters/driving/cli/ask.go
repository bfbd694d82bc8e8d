package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
)

var (
	askTopK int
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the indexed documents",
	Long: `Retrieves the most relevant passages with hybrid search and
generates an answer grounded in them. Every statement in the answer
cites the passage it came from; an answer the evidence cannot
support is refused instead of guessed.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	if err := a.pipeline.Load(ctx); err != nil {
		return fmt.Errorf("loading index: %w", err)
	}

	k := askTopK
	if k <= 0 {
		k = cfg.Retrieval.TopK
	}

	answer, err := a.pipeline.Ask(ctx, query, k)
	if err != nil {
		if errors.Is(err, domain.ErrGenerationTimeout) {
			return fmt.Errorf("the model did not answer in time, try again: %w", err)
		}
		return err
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	outputAnswerText(cmd, answer)
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)

	if answer.Refusal {
		return
	}

	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, c := range answer.Citations {
			marker := ""
			if c.OCRDerived {
				marker = " [OCR]"
			}
			cmd.Printf("  - %s%s\n", c.Citation(), marker)
		}
	}

	if answer.LowConfidence {
		cmd.Println()
		cmd.Println("Note: some statements could not be verified against the indexed documents.")
	}
}
