package main

import (
	"errors"
	"log/slog"
	"os"
)

// errUsage marks a bad flag or argument combination.
var errUsage = errors.New("usage")

func main() {
	Execute()
}

// fatal logs err and exits: 2 for usage mistakes, 1 for everything else.
func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	if errors.Is(err, errUsage) {
		os.Exit(2)
	}
	os.Exit(1)
}
