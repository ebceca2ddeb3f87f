// subprocheck finds subprocess calls that run constant commands
// through the shell, and rewrites them to pass argument lists.
package main // import "github.com/pyguard/subprocheck/cmd/subprocheck"

import (
	"context"
	"os"
	"os/signal"

	"github.com/pyguard/subprocheck/lintcmd"
	"github.com/pyguard/subprocheck/security"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	cmd := lintcmd.NewCommand("subprocheck")
	cmd.AddAnalyzers(security.Analyzers...)
	code := cmd.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
