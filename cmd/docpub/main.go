package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docpub/cmd/docpub/commands"
	"git.home.luguber.info/inful/docpub/internal/version"
)

func main() {
	cli := commands.CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("docpub"),
		kong.Description("Build and publish a documentation site from a source document"),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("docpub %s (commit %s, built %s)", version.Version, version.GitCommit, version.BuildTime)},
	)

	global := &commands.Global{}
	if err := kctx.Run(global, &cli); err != nil {
		fmt.Fprintf(os.Stderr, "docpub: %v\n", err)
		os.Exit(1)
	}
}
