package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"arheritage/internal/apperr"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, apperr.UserMessage(err, err.Error()))
		}
		os.Exit(1)
	}
}
