package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smokerep/smokerep/config"
	"github.com/smokerep/smokerep/history"
)

var (
	listHistory string
	listOutput  string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports recorded in the history index",
	Example: `  smokerep list --history ./history.db
  smokerep list --history ./history.db -o json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listHistory, "history", "", "History index database path")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format: table, json")
}

func runList(cmd *cobra.Command, args []string) error {
	path := listHistory
	if path == "" && flagConfig != "" {
		cfg, err := config.LoadConfig(flagConfig)
		if err != nil {
			return err
		}
		path = cfg.HistoryDB
	}
	if path == "" {
		return fmt.Errorf("history database is required (--history or history_db in config)")
	}

	idx, err := history.Open(path)
	if err != nil {
		return err
	}
	defer idx.Close()

	states := idx.List()

	switch listOutput {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(states)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "AUTHOR\tDIST\tGRADE\tWRITTEN\tPATH")
		for _, s := range states {
			author := s.Author
			if author == "" {
				author = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				author, s.Dist, s.Grade, s.WrittenAt.Format("2006-01-02 15:04:05"), s.Path)
		}
		return w.Flush()
	default:
		return fmt.Errorf("invalid output format: %s (must be table or json)", listOutput)
	}
}
