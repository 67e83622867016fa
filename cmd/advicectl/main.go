// Command advicectl fetches advice from the backend, plans stop-loss targets
// and runs the terminal dashboard locally.
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		log.Error("advicectl failed", "err", err)
		os.Exit(1)
	}
}
