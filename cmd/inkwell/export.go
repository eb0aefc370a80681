package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell-app/inkwell/internal/codec"
	"github.com/inkwell-app/inkwell/internal/repo"
)

var (
	exportOut     string
	exportFolders bool
)

var exportCmd = &cobra.Command{
	Use:   "export [note-id...]",
	Short: "Export notes to a backup file",
	Long: `Export writes notes as a portable JSON backup. With no arguments every
note is exported; otherwise only the named notes are.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		exporter := &codec.Exporter{Store: st}

		var payload any
		if exportFolders {
			payload, err = exporter.ExportFolders(ctx)
		} else {
			ids := args
			if len(ids) == 0 {
				notes, listErr := repo.New(st).List(ctx, repo.Query{})
				if listErr != nil {
					return listErr
				}
				for _, note := range notes {
					ids = append(ids, note.ID)
				}
			}
			payload, err = exporter.ExportNotes(ctx, ids)
		}
		if err != nil {
			return err
		}

		out := os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to a file instead of stdout")
	exportCmd.Flags().BoolVar(&exportFolders, "folders", false, "Export folders instead of notes")
}
