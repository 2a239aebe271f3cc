package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/CouSixz/Ciborg/internal/export"
	"github.com/CouSixz/Ciborg/internal/ingest"
	"github.com/CouSixz/Ciborg/internal/models"
	"github.com/CouSixz/Ciborg/internal/service"
)

type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	ordersPath := flag.String("orders", "", "Service order export, .csv or .xlsx (required)")
	teamPath := flag.String("team", "", "Team roster, .csv or .xlsx (required)")
	tabName := flag.String("tab", "", "Business unit tab: RAC|GTF|ZKM (empty = all)")
	seed := flag.String("seed", "", "Seed for tie-breaking (empty = random)")
	format := flag.String("format", "text", "Output format: text|json")
	xlsxOut := flag.String("xlsx", "", "Write the result workbook to this path")
	dateLayout := flag.String("date-layout", ingest.DefaultDateLayout, "Layout of the order creation date column")
	verbose := flag.Bool("v", false, "Log every routing decision")
	var suppliers, bands listFlag
	flag.Var(&suppliers, "supplier", "Only orders of this supplier (repeatable)")
	flag.Var(&bands, "band", "Only orders in this value band (repeatable)")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	if *ordersPath == "" || *teamPath == "" {
		fmt.Println("Error: -orders and -team flags are required")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *format != "text" && *format != "json" {
		fmt.Printf("Error: format must be one of: text, json (got: %s)\n", *format)
		os.Exit(1)
	}
	tab, ok := service.ParseTab(*tabName)
	if !ok {
		fmt.Printf("Error: unknown tab %q\n", *tabName)
		os.Exit(1)
	}
	for _, b := range bands {
		if _, ok := service.ParseBand(b); !ok {
			fmt.Printf("Error: unknown band %q\n", b)
			os.Exit(1)
		}
	}

	orders, err := loadOrders(*ordersPath, *dateLayout)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *ordersPath).Msg("failed to read orders")
	}
	agents, err := loadTeam(*teamPath)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *teamPath).Msg("failed to read team")
	}

	orders = service.PrepareOrders(orders, time.Now().UTC())
	active := service.ActiveAgents(agents)
	filter := service.OrderFilter{Tab: tab, Suppliers: suppliers, Bands: bands}
	eligible := service.FilterOrders(orders, filter)

	dist := service.Distributor{Random: service.NewRandomSource(*seed), Logger: logger}
	result, err := dist.Distribute(eligible, active)
	if err != nil {
		logger.Fatal().Err(err).Int("orders", len(eligible)).Int("agents", len(active)).Msg("distribution failed")
	}

	if *xlsxOut != "" {
		if err := export.SaveAs(*xlsxOut, result.Assignments, result.Undistributed); err != nil {
			logger.Fatal().Err(err).Str("file", *xlsxOut).Msg("failed to write workbook")
		}
		logger.Info().Str("file", *xlsxOut).Msg("workbook written")
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			logger.Fatal().Err(err).Msg("failed to encode result")
		}
	default:
		printText(result)
	}
}

func loadOrders(path, layout string) ([]models.ServiceOrder, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	orders, errs := ingest.ParseOrders(table, layout)
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return orders, nil
}

func loadTeam(path string) ([]models.Agent, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	agents, errs := ingest.ParseAgents(table)
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return agents, nil
}

func readTable(path string) (ingest.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return ingest.Table{}, err
	}
	defer f.Close()
	return ingest.ReadTable(path, f)
}

func printText(result service.DistributionResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tAGENT\tNAME\tBAND\tVALUE\tSTATUS")
	for _, a := range result.Assignments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", a.OrderID, a.AgentID, a.AgentName, a.Band, a.Value.StringFixed(2), a.Status)
	}
	w.Flush()

	if len(result.Undistributed) > 0 {
		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ORDER\tREASON")
		for _, u := range result.Undistributed {
			fmt.Fprintf(w, "%s\t%s\n", u.OrderID, u.Reason)
		}
		w.Flush()
	}
	fmt.Printf("\nassigned: %d  undistributed: %d\n", len(result.Assignments), len(result.Undistributed))
}
