package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/kailas-cloud/placescout/internal/domain"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, domain.ErrConfig) {
			fmt.Fprintln(os.Stderr, "configuration error:", err)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
