package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/runlog/cmd/runlog/commands"
	"git.home.luguber.info/inful/runlog/internal/config"
	"git.home.luguber.info/inful/runlog/internal/version"
)

func main() {
	// Existing environment variables win over .env values.
	if _, err := config.LoadEnvFiles("."); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	cli := &commands.CLI{}
	kong.Parse(cli,
		kong.Name("runlog"),
		kong.Description("Run a build/run tool and capture its combined output to a timestamped log file."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	os.Exit(cli.Execute(context.Background(), nil))
}
