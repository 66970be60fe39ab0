// Command invoice reconciles order and item payload files and writes the
// invoice workbook, without running the server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	reportapp "github.com/janytree/orderdesk/internal/application/report"
	"github.com/janytree/orderdesk/internal/domain/order"
	"github.com/janytree/orderdesk/internal/infrastructure/cache"
	"github.com/janytree/orderdesk/internal/infrastructure/ecommerce"
	"github.com/janytree/orderdesk/internal/infrastructure/export"
	"github.com/janytree/orderdesk/internal/infrastructure/logger"
	"github.com/janytree/orderdesk/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

type options struct {
	ordersPath string
	itemsPath  string
	startDate  string
	endDate    string
	keyword    string
	timezone   string
	outDir     string
	output     string
	logLevel   string
	printJSON  bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "invoice:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("invoice", flag.ContinueOnError)
	fs.StringVar(&opts.ordersPath, "orders", "", "Orders payload file (JSON array or storefront envelope)")
	fs.StringVar(&opts.itemsPath, "items", "", "Optional item payload file")
	fs.StringVar(&opts.startDate, "start", "", "First order day, YYYY-MM-DD")
	fs.StringVar(&opts.endDate, "end", "", "Last order day, YYYY-MM-DD")
	fs.StringVar(&opts.keyword, "keyword", "", "Only invoice lines matching this keyword")
	fs.StringVar(&opts.timezone, "tz", "Asia/Seoul", "Time zone order days are counted in")
	fs.StringVar(&opts.outDir, "dir", ".", "Directory the workbook is written to")
	fs.StringVar(&opts.output, "out", "", "Workbook file name (default: invoices_<start>_<end>.xlsx)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.printJSON, "json", false, "Print the session summary as JSON")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.ordersPath == "" {
		return opts, errors.New("-orders is required")
	}
	if (opts.startDate == "") != (opts.endDate == "") {
		return opts, errors.New("-start and -end must be given together")
	}
	return opts, nil
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	log, err := logger.New(&logger.Config{Level: opts.logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	orders, err := readRecords(opts.ordersPath)
	if err != nil {
		return fmt.Errorf("orders: %w", err)
	}
	var items []order.RawRecord
	if opts.itemsPath != "" {
		if items, err = readRecords(opts.itemsPath); err != nil {
			return fmt.Errorf("items: %w", err)
		}
	}

	var dateRange *order.DateRange
	if opts.startDate != "" {
		r, err := order.DayRange(opts.startDate, opts.endDate, loc)
		if err != nil {
			return err
		}
		dateRange = &r
	}

	sessions := cache.NewInMemorySessionStore(cache.DefaultCleanupInterval)
	defer sessions.Close()
	svc := reportapp.NewReconciliationService(
		order.NewNormalizer(order.DefaultSchema(), loc),
		sessions,
		persistence.NewInMemoryRunRepository(1),
		export.NewXLSXExporter(),
	)

	ctx := logger.WithContext(context.Background(), log)
	summary, err := svc.Reconcile(ctx, reportapp.ReconcileRequest{
		Orders: orders,
		Items:  items,
		Range:  dateRange,
		Source: order.RunSourceFile,
	})
	if err != nil {
		return err
	}

	result, err := svc.ExportInvoices(ctx, summary.SessionID, opts.keyword)
	if err != nil {
		return err
	}
	name := opts.output
	if name == "" {
		name = result.Filename
	}
	path := filepath.Join(opts.outDir, name)
	if err := os.WriteFile(path, result.Content, 0o644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	log.Info("Workbook written", zap.String("path", path), zap.Int("invoices", result.Invoices))

	if opts.printJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	s := summary.Stats
	_, err = fmt.Fprintf(stdout, "%s: %d invoices from %d orders, %d items (%d orphan items, %d orders without items, %d excluded)\n",
		path, result.Invoices, s.Orders, s.Items, s.OrphanItems, s.ItemlessOrders, s.ExcludedOrders)
	return err
}

// readRecords accepts the same shapes as the storefront API: a bare array,
// {"data": [...]} or {"data": {"list": [...]}}.
func readRecords(path string) ([]order.RawRecord, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	records, _, err := ecommerce.DecodeRecords(body)
	return records, err
}
