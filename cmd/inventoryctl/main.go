package main

import (
	"os"
)

func main() {
	if err := newRootCmd(bootstrapFromEnv).Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
