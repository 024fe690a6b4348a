// Command akywe is the bakery debt ledger.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akywe-ledger/akywe/internal/app/mutation"
	"github.com/akywe-ledger/akywe/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	if mutation.IsRejection(err) {
		os.Exit(2)
	}
	os.Exit(1)
}
