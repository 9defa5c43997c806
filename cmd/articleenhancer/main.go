package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"ArticleEnhancer/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
}

// report prints the diagnostic line and its hint.
func report(w io.Writer, err error) {
	d := usecase.Diagnose(err)
	if d.Stage != "" {
		_, _ = fmt.Fprintf(w, "error (%s): %s\n", d.Stage, d.Message)
	} else {
		_, _ = fmt.Fprintf(w, "error: %s\n", d.Message)
	}
	if d.Hint != "" {
		_, _ = fmt.Fprintf(w, "hint: %s\n", d.Hint)
	}
}
