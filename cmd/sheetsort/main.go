// Command sheetsort sorts scanned sheet-music PDFs into a piece, instrument
// and part tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/sheet-sorter/internal/common"
)

// errCanceled marks a run that was interrupted before every file was done.
var errCanceled = errors.New("run canceled")

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		printError("Error: %v\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case common.IsStructural(err):
		return 2
	case errors.Is(err, errCanceled):
		return 130
	default:
		return 1
	}
}
