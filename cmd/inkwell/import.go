package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell-app/inkwell/internal/codec"
)

var importFolders bool

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import notes from a backup file",
	Long: `Import reads a backup file and stores its records. Records carrying an
id replace any existing note with that id; records without one become new
notes. Malformed records are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read backup file: %w", err)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		importer := &codec.Importer{Store: st}

		var summary *codec.Summary
		if importFolders {
			summary, err = importer.ImportFolders(cmd.Context(), data)
		} else {
			summary, err = importer.ImportNotes(cmd.Context(), data)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d record(s)\n", summary.Imported)
		for _, failure := range summary.Failed {
			name := failure.Title
			if name == "" {
				name = fmt.Sprintf("record %d", failure.Index)
			}
			fmt.Fprintf(os.Stderr, "skipped %s: %s\n", name, failure.Reason)
		}
		if len(summary.Failed) > 0 {
			return fmt.Errorf("%d record(s) could not be imported", len(summary.Failed))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importFolders, "folders", false, "Import a folder backup instead of notes")
}
