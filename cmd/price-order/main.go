// Command price-order prices orders from flags or from an NDJSON stream.
//
//	price-order -customer Alice -type VIP -items Item1,Item2 -total 1200
//	zcat orders.ndjson.gz | price-order -batch -format json
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

func main() {
	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		lg.Error("Price order failed", zap.Error(err))
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
