package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"planner/internal/cli"
	"planner/internal/config"
	"planner/internal/core"
)

// Commands is the list of planner subcommands.
var Commands = []subcommands.Command{
	&timelineCmd{},
	&summaryCmd{},
	&categoriesCmd{},
}

// planFlags are the flags shared by every planner subcommand.
type planFlags struct {
	monthsAhead int
	raw         bool
	asJSON      bool
}

func (p *planFlags) register(f *flag.FlagSet) {
	f.IntVar(&p.monthsAhead, "m", -1, "Months to forecast ahead. Defaults to MONTHS_AHEAD.")
	f.BoolVar(&p.raw, "raw", false, "Print plain Markdown instead of rendering it for the terminal.")
	f.BoolVar(&p.asJSON, "json", false, "Print the plan as JSON.")
}

// run computes the plan and prints it with render unless -json is set.
func (p *planFlags) run(ctx context.Context, render func(core.Plan) string) subcommands.ExitStatus {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}

	monthsAhead := p.monthsAhead
	if monthsAhead < 0 {
		monthsAhead = cfg.MonthsAhead
	}
	if monthsAhead > config.MaxMonthsAhead {
		fmt.Fprintf(os.Stderr, "Error: -m must be between 0 and %d\n", config.MaxMonthsAhead)
		return subcommands.ExitUsageError
	}

	logger := cli.SetupLogger(cfg.LogLevel, os.Stderr)
	stack, err := cli.BuildPlanner(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing planner: %v\n", err)
		return subcommands.ExitFailure
	}
	defer stack.Close()

	plan, err := stack.Planner.Plan(ctx, monthsAhead)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing plan: %v\n", err)
		return subcommands.ExitFailure
	}

	if p.asJSON {
		if err := writeJSON(os.Stdout, plan); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding plan: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	md := render(plan)
	if p.raw {
		fmt.Print(md)
		return subcommands.ExitSuccess
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}

func writeJSON(w io.Writer, plan core.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

// printMarkdown renders md for the terminal, falling back to plain text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

type timelineCmd struct{ planFlags }

func (*timelineCmd) Name() string     { return "timeline" }
func (*timelineCmd) Synopsis() string { return "display actual and predicted balances month by month" }
func (*timelineCmd) Usage() string {
	return `plannerctl timeline [-m <months>] [-raw] [-json]

  Displays the reconciled timeline from January to the end of the forecast horizon.
`
}

func (c *timelineCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *timelineCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, TimelineMarkdown)
}

type summaryCmd struct{ planFlags }

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display income, expense and the estimated balance" }
func (*summaryCmd) Usage() string {
	return `plannerctl summary [-m <months>] [-raw] [-json]

  Displays year-to-date actuals, forecast totals and the estimated end balance.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, SummaryMarkdown)
}

type categoriesCmd struct{ planFlags }

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "display forecast allocated to subcategories" }
func (*categoriesCmd) Usage() string {
	return `plannerctl categories [-m <months>] [-raw] [-json]

  Displays the subcategories with the largest allocated forecast.
`
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, CategoriesMarkdown)
}
