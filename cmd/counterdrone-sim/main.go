package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Optional .env file with GREPTIMEDB_* and CDSIM_* settings.
	_ = godotenv.Load()

	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
