package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"personamcp/internal/persona"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify every persona's files",
	Long: `Reads each configured persona file, its safety guidelines and its
worldbook, and reports what is missing or malformed. Exits non-zero when
any persona has a problem.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, subtleStyle.Render("bundles in "+a.root))
	failed := 0
	for _, p := range a.registry.Personas() {
		fmt.Fprintln(w, titleStyle.Render(p.ID()))
		if !checkPersona(cmd.Context(), w, p) {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d personas have problems", failed, a.registry.Len())
	}
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("All %d personas OK", a.registry.Len())))
	return nil
}

// checkPersona prints one line per file and reports whether all passed.
func checkPersona(ctx context.Context, w io.Writer, p *persona.Persona) bool {
	ok := true
	report := func(what string, err error, detail string) {
		if err != nil {
			ok = false
			fmt.Fprintf(w, "  %s %s: %v\n", errorStyle.Render("fail"), what, err)
			return
		}
		fmt.Fprintf(w, "  %s %s %s\n", successStyle.Render("ok"), what, subtleStyle.Render(detail))
	}

	profile, err := p.Profile(ctx)
	report("persona", err, profile.Name)

	if p.Bundle().Safety == "" {
		fmt.Fprintf(w, "  %s safety %s\n", subtleStyle.Render("--"), subtleStyle.Render("not configured"))
	} else {
		_, err := p.Safety(ctx)
		report("safety", err, "")
	}

	engine := p.Worldbook()
	if engine == nil {
		fmt.Fprintf(w, "  %s worldbook %s\n", subtleStyle.Render("--"), subtleStyle.Render("not configured"))
		return ok
	}
	doc, err := engine.Store().Load(ctx)
	if err != nil {
		report("worldbook", err, "")
		return ok
	}
	report("worldbook", nil, fmt.Sprintf("%d entries, %s policy", doc.Len(), engine.Policy()))
	return ok
}
