package main

import (
	"github.com/alecthomas/kong"
)

type globalOptions struct {
	Verbose bool `help:"log progress to stderr" short:"v"`
}

var cli struct {
	globalOptions

	ViewSchema viewSchemaCmd `cmd:"" help:"print the schema and column sizes of parquet files"`
	PrintHist  printHistCmd  `cmd:"" help:"print histograms written by multidraw"`
	Draw       drawCmd       `cmd:"" help:"fill one histogram from parquet files and print it"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("multidraw-cli"),
		kong.Description("Tools for inspecting multidraw inputs and outputs"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(&cli.globalOptions)
	ctx.FatalIfErrorf(err)
}
