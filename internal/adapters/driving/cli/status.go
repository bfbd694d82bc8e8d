package cli

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	documents, chunks, err := a.pipeline.Status(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Documents: %d\n", documents)
	cmd.Printf("Chunks:    %d\n", chunks)
	cmd.Printf("Store:     %s\n", a.store.Path())
	return nil
}
