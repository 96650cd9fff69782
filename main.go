package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"rampa/cmd"
)

func main() {
	// The .env file is optional; configuration can also come from the
	// environment or ~/.rampa.yaml.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
