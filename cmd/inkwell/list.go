package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkwell-app/inkwell/internal/repo"
)

var (
	listJSON   bool
	listSearch string
	listTags   []string
	listSort   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes in the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		sort, err := sortMode(listSort)
		if err != nil {
			return err
		}

		notes, err := repo.New(st).List(cmd.Context(), repo.Query{
			Search: listSearch,
			Tags:   listTags,
			Sort:   sort,
		})
		if err != nil {
			return err
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(notes)
		}

		for _, note := range notes {
			line := fmt.Sprintf("%s  %s", note.ID, note.Title)
			if len(note.Tags) > 0 {
				line += "  [" + strings.Join(note.Tags, ", ") + "]"
			}
			fmt.Println(line)
		}
		return nil
	},
}

func sortMode(name string) (repo.SortMode, error) {
	switch name {
	case "", "default":
		return repo.SortDefault, nil
	case "title":
		return repo.SortByTitle, nil
	case "created":
		return repo.SortByCreated, nil
	case "modified":
		return repo.SortByModified, nil
	}
	return repo.SortDefault, fmt.Errorf("unknown sort %q (want title, created, or modified)", name)
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Filter by title substring")
	listCmd.Flags().StringSliceVar(&listTags, "tag", nil, "Filter by tag (repeatable, matches any)")
	listCmd.Flags().StringVar(&listSort, "sort", "", "Sort order: title, created, or modified")
}
