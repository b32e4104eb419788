package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/logger"
)

var exportCmd = &cobra.Command{
	Use:   "export <message-id>",
	Short: "Download an assistant message as pdf, docx or markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("format")
		format, err := api.ParseExportFormat(name)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		dl, err := a.client.ExportMessage(ctx, args[0], format)
		if format == api.ExportPDF && api.IsStatus(err, http.StatusNotFound) {
			logger.Debug("export endpoint missing, using legacy pdf route", "message_id", args[0])
			dl, err = a.client.MessagePDF(ctx, args[0])
		}
		if err != nil {
			return err
		}

		target, _ := cmd.Flags().GetString("output")
		if target == "-" {
			_, err := cmd.OutOrStdout().Write(dl.Body)
			return err
		}
		if target == "" {
			target = filepath.Base(dl.Filename)
		}
		if err := os.WriteFile(target, dl.Body, 0644); err != nil {
			return fmt.Errorf("failed to save export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes).\n", target, len(dl.Body))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", "pdf", "pdf, docx or md")
	exportCmd.Flags().StringP("output", "o", "", "output file, - for stdout (default: the server's file name)")
	rootCmd.AddCommand(exportCmd)
}
