package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/trakapp/trak/cmd/trak/cmd"
	"github.com/trakapp/trak/internal/client"
)

func main() {
	rootCmd := cmd.RootCmd()

	err := rootCmd.Execute()
	if err == nil {
		return
	}

	// Failed mutations were already reported by the notifier
	if !errors.Is(err, cmd.ErrReported) {
		fmt.Fprintln(os.Stderr, "Error:", client.ErrorMessage(err))
	}
	os.Exit(1)
}
