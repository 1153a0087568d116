package main

import (
	"encoding/json"
	"io"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	extractStore  bool
	extractPretty bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract structured credit data from one document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		env, err := initExtractor(ctx, cfg, "extract", extractStore)
		if err != nil {
			return err
		}
		defer env.Close()

		outcome := env.Pipeline.ProcessDocument(ctx, doc)

		if env.Store != nil {
			id, err := env.Store.SaveOutcome(ctx, doc.Filename(), outcome)
			if err != nil {
				return eris.Wrap(err, "save outcome")
			}
			zap.L().Info("outcome stored", zap.String("id", id))
		}

		return writeJSON(cmd.OutOrStdout(), outcome, extractPretty)
	},
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return eris.Wrap(enc.Encode(v), "encode output")
}

func init() {
	extractCmd.Flags().BoolVar(&extractStore, "store", false, "persist the outcome in the configured store")
	extractCmd.Flags().BoolVar(&extractPretty, "pretty", false, "indent the JSON output")
	rootCmd.AddCommand(extractCmd)
}
