package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	showRaw    bool
	showStyle  string
	showWidth  int
	promptUser string
	promptChar string
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List configured personas",
	Args:  cobra.NoArgs,
	RunE:  runPersonas,
}

var showCmd = &cobra.Command{
	Use:   "show <persona>",
	Short: "Render a persona's Markdown",
	Long: `Renders the persona Markdown template in the terminal. Placeholders
such as {{user}} and {{char}} are left as written; use prompt to see them
replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var promptCmd = &cobra.Command{
	Use:   "prompt <persona>",
	Short: "Print a persona's composed system prompt",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrompt,
}

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print the Markdown without rendering")
	showCmd.Flags().StringVar(&showStyle, "style", "", "glamour style (dark, light, notty); detected from the terminal when empty")
	showCmd.Flags().IntVar(&showWidth, "width", 80, "word wrap width")
	promptCmd.Flags().StringVar(&promptUser, "user", "", "value for {{user}} (default from the persona config)")
	promptCmd.Flags().StringVar(&promptChar, "char", "", "value for {{char}} (default from frontmatter or config)")
	rootCmd.AddCommand(personasCmd, showCmd, promptCmd)
}

func runPersonas(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, p := range a.registry.Personas() {
		line := idStyle.Render(p.ID()) + "  " + p.Name()
		if a.cfg.Primary == p.ID() {
			line += " " + successStyle.Render("(primary)")
		}
		fmt.Fprintln(w, line)
		if d := p.Description(); d != "" {
			fmt.Fprintln(w, "  "+subtleStyle.Render(clip(d, commentWidth)))
		}
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	p, err := a.registry.Get(args[0])
	if err != nil {
		return err
	}

	md, err := p.Template(cmd.Context())
	if err != nil {
		return err
	}
	if showRaw {
		_, err = fmt.Fprint(cmd.OutOrStdout(), md)
		return err
	}

	styleOpt := glamour.WithAutoStyle()
	if showStyle != "" {
		styleOpt = glamour.WithStandardStyle(showStyle)
	}
	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(showWidth))
	if err != nil {
		return fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", p.ID(), err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func runPrompt(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	p, err := a.registry.Get(args[0])
	if err != nil {
		return err
	}

	text, err := p.SystemPrompt(cmd.Context(), promptUser, promptChar)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
