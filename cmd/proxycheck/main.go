package main

import (
	"errors"
	"flag"
	"os"

	"proxycheck/internal/app"

	"github.com/charmbracelet/log"
)

func main() {
	err := app.Run(os.Args[1:], os.Stdout)
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		log.Error("proxycheck terminated", "error", err)
	}
	os.Exit(app.ExitCode(err))
}
