// Package main is the entry point for the personamcp CLI.
//
// personamcp serves character personas (a Markdown persona, optional safety
// guidelines and a JSON worldbook) to AI assistants over the Model Context
// Protocol. The same worldbook operations are available from the terminal
// for inspecting a bundle without an MCP client.
//
// Startup for every command that touches personas:
//
// 1. Load the YAML config (--config or the XDG config path)
// 2. Prepare the bundle repository (local directory or git clone)
// 3. Open the persona registry, warming cached worldbooks
// 4. Run the command against the registry
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
