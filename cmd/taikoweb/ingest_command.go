package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"taikoweb/services"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var caller string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ingest ZIP",
		Short: "Ingest a song archive from disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := ctx.ensure()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat archive: %w", err)
			}

			song, err := a.pipeline.Ingest(cmd.Context(), caller, services.Upload{
				Filename: filepath.Base(args[0]),
				Body:     f,
			})
			if err != nil {
				return fmt.Errorf("ingest %s: %w", args[0], err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(song)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ingested %q as %s (%d files, %s archive)\n",
				song.Title, song.ID, len(song.Files), humanize.IBytes(uint64(info.Size())))
			return nil
		},
	}

	cmd.Flags().StringVar(&caller, "as", "", "Username the upload is attributed to (must hold the upload level)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the created song as JSON")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}
