package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"personamcp/internal/worldbook"
)

var (
	listJSON   bool
	getJSON    bool
	searchJSON bool
	searchTopK int
)

var listCmd = &cobra.Command{
	Use:   "list <persona>",
	Short: "List worldbook entries",
	Long: `Lists every entry of a persona's worldbook in document order, the same
way the list_{persona}_worldbook_entries tool does.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

var getCmd = &cobra.Command{
	Use:   "get <persona> <entry-id>",
	Short: "Show one worldbook entry",
	Args:  cobra.ExactArgs(2),
	RunE:  runGet,
}

var searchCmd = &cobra.Command{
	Use:   "search <persona> <query>",
	Short: "Search a worldbook",
	Long: `Scores worldbook entries by case-insensitive substring matches of the
query, using the persona's configured search policy.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output entries as JSON")
	getCmd.Flags().BoolVar(&getJSON, "json", false, "output the entry as JSON")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 5, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(listCmd, getCmd, searchCmd)
}

// dispatch opens the app and runs one worldbook operation for persona id.
func dispatch(cmd *cobra.Command, id, op string, args map[string]any) (any, string, error) {
	a, err := openApp(cmd.Context())
	if err != nil {
		return nil, "", err
	}
	p, engine, err := a.worldbook(id)
	if err != nil {
		return nil, "", err
	}
	v, err := worldbook.Dispatch(cmd.Context(), engine, op, args)
	if err != nil {
		return nil, "", err
	}
	return v, p.Name(), nil
}

func runList(cmd *cobra.Command, args []string) error {
	v, name, err := dispatch(cmd, args[0], worldbook.OpListEntries, nil)
	if err != nil {
		return err
	}
	if listJSON {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	return writeSummaries(cmd.OutOrStdout(), name, v.([]worldbook.Summary))
}

func runGet(cmd *cobra.Command, args []string) error {
	v, _, err := dispatch(cmd, args[0], worldbook.OpGetEntry, map[string]any{"id": args[1]})
	if err != nil {
		return err
	}
	if getJSON {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	return writeEntry(cmd.OutOrStdout(), v.(worldbook.Entry))
}

func runSearch(cmd *cobra.Command, args []string) error {
	v, name, err := dispatch(cmd, args[0], worldbook.OpSearch, map[string]any{
		"query": args[1],
		"top_k": searchTopK,
	})
	if err != nil {
		return err
	}
	if searchJSON {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	return writeSearch(cmd.OutOrStdout(), name, v.(*worldbook.SearchResult))
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeSummaries(w io.Writer, name string, summaries []worldbook.Summary) error {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s worldbook (%d entries)", name, len(summaries))))
	for _, s := range summaries {
		line := "  " + idStyle.Render(s.ID)
		if s.Comment != "" {
			line += "  " + clip(s.Comment, commentWidth)
		}
		if len(s.Tags) > 0 {
			line += "  " + subtleStyle.Render("["+strings.Join(s.Tags, ", ")+"]")
		}
		if s.ChunkCount != nil {
			line += "  " + subtleStyle.Render(fmt.Sprintf("%d chunks", *s.ChunkCount))
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func writeEntry(w io.Writer, e worldbook.Entry) error {
	fmt.Fprintln(w, titleStyle.Render(e.ID))
	if e.Comment != "" {
		fmt.Fprintln(w, wrap(e.Comment))
	}
	if len(e.Keys) > 0 {
		fmt.Fprintln(w, subtleStyle.Render("keys: "+strings.Join(e.Keys, ", ")))
	}
	if len(e.Tags) > 0 {
		fmt.Fprintln(w, subtleStyle.Render("tags: "+strings.Join(e.Tags, ", ")))
	}
	for _, c := range e.Chunks {
		fmt.Fprintln(w)
		fmt.Fprintln(w, idStyle.Render("["+c.ID+"]"))
		fmt.Fprintln(w, wrap(c.Text))
	}
	return nil
}

func writeSearch(w io.Writer, name string, res *worldbook.SearchResult) error {
	if len(res.Results) == 0 {
		fmt.Fprintf(w, "No %s worldbook entries match %q.\n", name, res.Query)
		return nil
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s worldbook: %q (%s, top %d)", name, res.Query, res.Policy, res.TopK)))
	for i, h := range res.Results {
		label := h.Entry()
		if h.ChunkID != "" {
			label += "/" + h.ChunkID
		}
		fmt.Fprintf(w, "  [%d] %s %s\n", i+1, idStyle.Render(label), scoreStyle.Render(fmt.Sprintf("(%d)", h.Score)))
		switch {
		case h.Text != "":
			fmt.Fprintln(w, indent(wrap(h.Text), "      "))
		case h.Comment != "":
			fmt.Fprintln(w, "      "+clip(h.Comment, commentWidth))
		}
	}
	return nil
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
