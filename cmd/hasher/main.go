// Command hasher is a mining worker process started by blockminer in process mode.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spacemeshos/blockminer/hasher"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := hasher.Main(ctx, os.Args[1:])
	stop()
	if err != nil {
		if !hasher.Reported(err) {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
