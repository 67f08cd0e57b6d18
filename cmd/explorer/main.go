// Command explorer lists a user's transactions page by page and filters
// the loaded set by text, category and date range.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"expensetracker/internal/cli"
	"expensetracker/internal/client"
	"expensetracker/internal/core"
	"expensetracker/internal/explorer"
	applog "expensetracker/internal/log"
)

type options struct {
	api      string
	email    string
	password string
	term     string
	category string
	start    string
	end      string
	pages    int
	limit    int
	summary  bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("explorer", flag.ContinueOnError)
	fs.StringVar(&o.api, "api", envOr("EXPLORER_API_URL", "http://localhost:5000"), "API base URL")
	fs.StringVar(&o.email, "email", os.Getenv("EXPLORER_EMAIL"), "account email")
	fs.StringVar(&o.password, "password", os.Getenv("EXPLORER_PASSWORD"), "account password")
	fs.StringVar(&o.term, "term", "", "text to match in title or notes")
	fs.StringVar(&o.category, "category", explorer.AllCategories, "category to show, or All")
	fs.StringVar(&o.start, "start", "", "first date to show (YYYY-MM-DD)")
	fs.StringVar(&o.end, "end", "", "last date to show (YYYY-MM-DD)")
	fs.IntVar(&o.pages, "pages", 0, "maximum pages to load, 0 loads all")
	fs.IntVar(&o.limit, "limit", core.DefaultPageSize, "page size")
	fs.BoolVar(&o.summary, "summary", false, "print the category summary")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.email == "" || o.password == "" {
		return o, errors.New("email and password are required")
	}
	return o, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// filters builds the predicate set. A date-only end bound covers the whole day.
func (o options) filters() (explorer.Filters, error) {
	f := explorer.Filters{Term: o.term, Category: o.category}
	if o.category != explorer.AllCategories && o.category != "" {
		c, err := core.ParseCategory(o.category)
		if err != nil {
			return f, err
		}
		f.Category = string(c)
	}
	if o.start != "" {
		t, err := core.ParseDate(o.start)
		if err != nil {
			return f, fmt.Errorf("start: %w", err)
		}
		f.Start = &t
	}
	if o.end != "" {
		t, err := core.ParseDate(o.end)
		if err != nil {
			return f, fmt.Errorf("end: %w", err)
		}
		if len(strings.TrimSpace(o.end)) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.End = &t
	}
	return f, nil
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(envOr("LOG_LEVEL", "warn"), os.Getenv("LOG_FORMAT"), applog.ComponentExplorer)

	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "explorer:", err)
		}
		os.Exit(2)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := run(ctx, o, client.NewClient(o.api, 15*time.Second), logger, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "explorer:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, c *client.Client, logger *applog.Logger, out io.Writer) error {
	f, err := o.filters()
	if err != nil {
		return err
	}
	if _, err := c.Login(ctx, o.email, o.password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	engine := explorer.NewEngine(c, o.limit, logger)
	engine.SetFilters(f)
	if err := engine.Load(ctx); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	for o.pages == 0 || engine.State().CurrentPage < o.pages {
		issued, err := engine.RequestMore(ctx)
		if err != nil {
			return fmt.Errorf("load page %d: %w", engine.State().CurrentPage+1, err)
		}
		if !issued {
			break
		}
	}

	visible := engine.Visible()
	printTransactions(out, visible)

	st := engine.State()
	fmt.Fprintf(out, "\n%d of %d loaded transactions shown (%d total", len(visible), st.Loaded, st.TotalCount)
	if st.HasMore {
		fmt.Fprint(out, ", more available")
	}
	fmt.Fprintln(out, ")")

	if o.summary {
		sum, err := c.Summary(ctx)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		printSummary(out, sum)
	}
	return nil
}

func printTransactions(out io.Writer, items []core.Transaction) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTITLE\tCATEGORY\tAMOUNT\tNOTES")
	for _, t := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			core.FormatDate(t.Date), t.Title, t.Category, core.FormatAmount(t.Amount), t.Notes)
	}
	tw.Flush()
}

func printSummary(out io.Writer, sum client.Summary) {
	fmt.Fprintf(out, "\nTotal expenses: %s across %d transactions\n",
		core.FormatAmount(sum.TotalAmount), sum.TransactionCount)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, row := range sum.Breakdown {
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\n", row.Category, core.FormatAmount(row.Amount), row.Percent)
	}
	tw.Flush()
}
