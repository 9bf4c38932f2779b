package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/order-pricing/internal/domain/order"
	"github.com/xenking/order-pricing/internal/report"
	"github.com/xenking/order-pricing/internal/wire"
)

const (
	formatText = "text"
	formatJSON = "json"

	maxLineBytes   = 1 << 20
	dedupeCapacity = 1_000_000
	dedupeFPR      = 0.001
)

var errUsage = errors.New("usage")

type options struct {
	customer      string
	customerType  string
	items         string
	total         string
	taxRate       string
	format        string
	allowNegative bool
	batch         bool
	gzip          bool
	dedupe        bool
	concurrency   int
}

func parseFlags(args []string) (options, error) {
	var opts options

	fs := flag.NewFlagSet("price-order", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringVar(&opts.customer, "customer", "Alice", "customer name")
	fs.StringVar(&opts.customerType, "type", "VIP", "customer type: REGULAR or VIP")
	fs.StringVar(&opts.items, "items", "Item1,Item2", "comma-separated item names")
	fs.StringVar(&opts.total, "total", "1200", "order total amount")
	fs.StringVar(&opts.taxRate, "tax-rate", "0.15", "tax rate applied to the total")
	fs.StringVar(&opts.format, "format", formatText, "output format: text or json")
	fs.BoolVar(&opts.allowNegative, "allow-negative", false, "price negative totals instead of rejecting them")
	fs.BoolVar(&opts.batch, "batch", false, "read NDJSON orders from stdin")
	fs.BoolVar(&opts.gzip, "gzip", false, "stdin is gzip-compressed (with -batch)")
	fs.BoolVar(&opts.dedupe, "dedupe", false, "drop repeated input lines (with -batch, approximate)")
	fs.IntVar(&opts.concurrency, "concurrency", 0, "parallel pricing workers (with -batch), 0 means GOMAXPROCS")

	if err := fs.Parse(args); err != nil {
		return options{}, errors.Wrap(errUsage, err.Error())
	}
	if opts.format != formatText && opts.format != formatJSON {
		return options{}, errors.Wrapf(errUsage, "unknown format %q", opts.format)
	}
	if (opts.gzip || opts.dedupe) && !opts.batch {
		return options{}, errors.Wrap(errUsage, "-gzip and -dedupe require -batch")
	}
	return opts, nil
}

func run(ctx context.Context, lg *zap.Logger, args []string, stdin io.Reader, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	rate, err := decimal.NewFromString(opts.taxRate)
	if err != nil {
		return errors.Wrap(err, "parse tax rate")
	}
	if rate.IsNegative() {
		return errors.Errorf("tax rate %s must not be negative", rate)
	}

	svc, err := order.NewService(order.ServiceConfig{
		TaxRate:          &rate,
		RejectNegative:   !opts.allowNegative,
		BatchConcurrency: opts.concurrency,
	})
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	var priced []order.PricedOrder
	if opts.batch {
		reqs, err := readBatch(ctx, lg, stdin, opts)
		if err != nil {
			return errors.Wrap(err, "read batch")
		}
		lg.Info("Pricing batch", zap.Int("orders", len(reqs)))

		if priced, err = svc.PriceBatch(ctx, reqs); err != nil {
			return errors.Wrap(err, "price batch")
		}
	} else {
		total, err := decimal.NewFromString(opts.total)
		if err != nil {
			return errors.Wrap(err, "parse total")
		}
		p, err := svc.PriceOrder(ctx, order.PriceOrderRequest{
			CustomerName: opts.customer,
			CustomerType: opts.customerType,
			Items:        splitItems(opts.items),
			TotalAmount:  total,
		})
		if err != nil {
			return errors.Wrap(err, "price order")
		}
		priced = []order.PricedOrder{*p}
	}

	return writeOutput(stdout, opts.format, priced)
}

// readBatch decodes one order per non-blank line.
func readBatch(ctx context.Context, lg *zap.Logger, r io.Reader, opts options) ([]order.PriceOrderRequest, error) {
	if opts.gzip {
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var seen *bloom.BloomFilter
	if opts.dedupe {
		seen = bloom.NewWithEstimates(dedupeCapacity, dedupeFPR)
	}

	var (
		reqs    []order.PriceOrderRequest
		line    int
		skipped int
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line++

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		if seen != nil && seen.TestAndAdd(raw) {
			// Bloom false positives can drop distinct orders.
			lg.Warn("Dropped repeated order", zap.Int("line", line))
			skipped++
			continue
		}

		req, err := wire.DecodeRequestBytes(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		reqs = append(reqs, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan input")
	}

	if skipped > 0 {
		lg.Info("Dropped repeated orders", zap.Int("skipped", skipped), zap.Float64("false_positive_rate", dedupeFPR))
	}
	return reqs, nil
}

func writeOutput(w io.Writer, format string, priced []order.PricedOrder) error {
	bw := bufio.NewWriter(w)

	switch format {
	case formatJSON:
		var e jx.Encoder
		for _, p := range priced {
			e.Reset()
			wire.EncodePriced(&e, p)
			if _, err := bw.Write(e.Bytes()); err != nil {
				return errors.Wrap(err, "write json")
			}
			if err := bw.WriteByte('\n'); err != nil {
				return errors.Wrap(err, "write json")
			}
		}
	default:
		for i, p := range priced {
			if i > 0 {
				if err := bw.WriteByte('\n'); err != nil {
					return errors.Wrap(err, "write separator")
				}
			}
			if err := report.WriteText(bw, p); err != nil {
				return err
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "flush output")
	}
	return nil
}

func splitItems(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
