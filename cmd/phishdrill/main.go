package main

import (
	"fmt"
	"os"

	"github.com/harrison/phishdrill/internal/cmd"
)

// Version is the current version of the phishdrill application
// Override at build time with -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0"

func main() {
	cmd.Version = Version
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
