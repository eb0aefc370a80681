package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var wipeYes bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every note, folder, and tag from the database",
	Long: `Wipe empties the database in one transaction. The schema survives, the
content does not. Prompts for confirmation unless --yes is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !wipeYes {
			fmt.Print("This permanently deletes all notes. Type 'wipe' to continue: ")
			reader := bufio.NewReader(os.Stdin)
			answer, err := reader.ReadString('\n')
			if err != nil {
				return err
			}
			if strings.TrimSpace(answer) != "wipe" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Wipe(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Database wiped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(wipeCmd)
	wipeCmd.Flags().BoolVarP(&wipeYes, "yes", "y", false, "Skip the confirmation prompt")
}
