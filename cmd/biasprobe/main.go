package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/ppiankov/biasprobe/internal/cli"
)

var version = "0.1.0"

func main() {
	cli.Version = version

	if err := fang.Execute(
		context.Background(),
		cli.RootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
