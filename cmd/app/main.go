package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	"sor_go/internal/app"
	"sor_go/internal/domain"
)

const usage = `Usage: sor <command> [flags]

Commands:
  annotate   join executions with the quote stream and write the labeled dataset
  train      fit per-exchange models on the labeled dataset and save the bundle
  route      answer a single routing query against the saved bundle

Run "sor <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	command, args := os.Args[1], os.Args[2:]

	var err error
	switch command {
	case "annotate":
		err = runAnnotate(args)
	case "train":
		err = runTrain(args)
	case "route":
		err = runRoute(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}

	if err != nil {
		slog.Error("❌ Command failed", slog.String("command", command), slog.Any("error", err))
		os.Exit(1)
	}
}

// initBootstrap wires config and logging the same way for every subcommand.
// The default config path is optional: if the file is absent we run on
// built-in defaults plus environment overrides.
func initBootstrap(fs *flag.FlagSet, args []string) (*app.Bootstrap, error) {
	configPath := fs.String("config", "configs/config.yaml", "path to the yaml config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	path := *configPath
	if path == "configs/config.yaml" {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(path); err != nil {
		return nil, err
	}
	return bootstrap, nil
}

func runAnnotate(args []string) error {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)
	bootstrap, err := initBootstrap(fs, args)
	if err != nil {
		return err
	}
	return bootstrap.RunAnnotate()
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	bootstrap, err := initBootstrap(fs, args)
	if err != nil {
		return err
	}
	return bootstrap.RunTrain()
}

func runRoute(args []string) error {
	fs := flag.NewFlagSet("route", flag.ExitOnError)
	var (
		symbol   = fs.String("symbol", "", "order symbol (e.g. AAPL)")
		side     = fs.String("side", "", "order side: buy or sell (also accepts 1/2, B/S)")
		quantity = fs.String("quantity", "", "order quantity in shares")
		limit    = fs.String("limit", "", "limit price")
		bid      = fs.String("bid", "", "current best bid price")
		ask      = fs.String("ask", "", "current best ask price")
		bidSize  = fs.String("bid-size", "0", "current bid size")
		askSize  = fs.String("ask-size", "0", "current ask size")
	)
	bootstrap, err := initBootstrap(fs, args)
	if err != nil {
		return err
	}

	parsedSide, err := domain.ParseSide(*side)
	if err != nil {
		return err
	}

	req := app.RouteRequest{Symbol: *symbol, Side: parsedSide}
	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"quantity", *quantity, &req.Quantity},
		{"limit", *limit, &req.LimitPrice},
		{"bid", *bid, &req.BidPrice},
		{"ask", *ask, &req.AskPrice},
		{"bid-size", *bidSize, &req.BidSize},
		{"ask-size", *askSize, &req.AskSize},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return fmt.Errorf("invalid -%s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	exchange, pred, err := bootstrap.RunRoute(req)
	if err != nil {
		return err
	}

	fmt.Printf("route %s %s %s -> %s (predicted improvement %.4f)\n",
		*side, *quantity, *symbol, exchange, pred)
	return nil
}
