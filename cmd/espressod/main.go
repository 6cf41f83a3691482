package main

import (
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/ZerepL/smart-espresso/cmd/espressod/app"
)

func main() {
	if err := app.NewEspressoCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
