package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"sstab/controller"
	"sstab/utils"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "parse":
		err = parseCommand(os.Args[2:])
	case "plot":
		err = plotCommand(os.Args[2:])
	case "serve":
		err = serveCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "sstab %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`usage: sstab <command> [flags] <args>

commands:
  parse    [flags] <log>            parse an ss log and export a table
  plot     [flags] <csv> [metric]   plot one metric from an exported csv
  serve    [flags] <log>            parse in the background and serve the table over HTTP
  validate [flags]                  check a configuration file
  help                              show this message`)
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	config *string
	level  *string
	log    *string
	quiet  *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		config: fs.String("config", "", "path to sstab.yaml (defaults apply when empty)"),
		level:  fs.String("level", "", "log level: debug, info, warn, error"),
		log:    fs.String("log", "", "optional log file path (stdout is always included)"),
		quiet:  fs.Bool("quiet", false, "only log errors"),
	}
}

// setup loads the configuration and starts the logger.
func (cf commonFlags) setup() (*utils.Config, *utils.Logger, error) {
	cfg := utils.DefaultConfig()
	if *cf.config != "" {
		var err error
		if cfg, err = utils.LoadConfig(*cf.config); err != nil {
			return nil, nil, err
		}
	}
	if *cf.level != "" {
		cfg.Log.Level = *cf.level
	}
	if *cf.log != "" {
		cfg.Log.File = *cf.log
	}

	logger := utils.InitLogger(utils.ParseLogLevel(cfg.Log.Level), cfg.Log.File)
	if *cf.quiet {
		logger.Quiet()
	}
	return cfg, logger, nil
}

func banner(title string) {
	utils.L().Info("═══════════════════════════════════════════════════")
	utils.L().Info("  sstab  ·  %s", title)
	utils.L().Info("  GOMAXPROCS=%d  ·  PID=%d", runtime.GOMAXPROCS(0), os.Getpid())
	utils.L().Info("═══════════════════════════════════════════════════")
}

func parseCommand(args []string) error {
	// ── CLI flags ────────────────────────────────────────────────────
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	common := addCommonFlags(fs)
	output := fs.String("o", "", "output path (default parsed_<stem>.csv or .arrow)")
	format := fs.String("format", "", "export format: csv, arrow or postgres")
	workers := fs.Int("workers", -1, "decode workers (0 = one per CPU)")
	prefix := fs.String("prefix", "", "column prefix for nested group fields")
	datetime := fs.Bool("datetime", false, "add an RFC 3339 datetime column")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one log file")
	}
	input := fs.Arg(0)

	// ── Config + logger ──────────────────────────────────────────────
	cfg, logger, err := common.setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	if *format != "" {
		cfg.Export.Format = strings.ToLower(*format)
	}
	if *workers >= 0 {
		cfg.Parse.Workers = *workers
	}
	if *prefix != "" {
		cfg.Export.NestedPrefix = *prefix
	}
	if *datetime {
		cfg.Export.DatetimeColumn = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Parse.Workers == 0 {
		cfg.Parse.Workers = runtime.NumCPU()
	}

	banner("parse " + input)

	// ── Context with OS signal cancellation ──────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := controller.NewParseController(cfg, nil).Run(ctx, input, *output)
	if errors.Is(err, controller.ErrNoRecords) {
		fmt.Println("no data to save")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("\n✓ parsed %d entries from %s. Table at: %s\n", sum.Parsed, input, sum.Output)
	return nil
}

func plotCommand(args []string) error {
	fs := flag.NewFlagSet("plot", flag.ExitOnError)
	common := addCommonFlags(fs)
	start := fs.String("s", "", "start time (HH:MM:SS or seconds from the first row)")
	end := fs.String("e", "", "end time (HH:MM:SS or seconds from the first row)")
	output := fs.String("o", "", "output png (default <metric>.png)")
	width := fs.Float64("w", 0, "plot width in inches")
	height := fs.Float64("H", 0, "plot height in inches")
	list := fs.Bool("list", false, "list the available metrics and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("expected a csv file")
	}

	cfg, logger, err := common.setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	pc, err := controller.NewPlotController(fs.Arg(0))
	if err != nil {
		return err
	}
	if *list || fs.NArg() < 2 {
		fmt.Println("available metrics:")
		for _, m := range pc.Metrics() {
			fmt.Println("  " + m)
		}
		return nil
	}

	req := controller.PlotRequest{
		Metric: fs.Arg(1),
		Width:  cfg.Plot.Width,
		Height: cfg.Plot.Height,
		Output: *output,
	}
	if *width > 0 {
		req.Width = *width
	}
	if *height > 0 {
		req.Height = *height
	}
	if req.Start, err = offsetFlag("-s", *start); err != nil {
		return err
	}
	if req.End, err = offsetFlag("-e", *end); err != nil {
		return err
	}

	out, err := pc.Plot(req)
	if err != nil {
		return err
	}
	fmt.Printf("✓ plot saved to %s\n", out)
	return nil
}

func offsetFlag(name, v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	sec, err := utils.ParseTimeOffset(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &sec, nil
}

func serveCommand(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	common := addCommonFlags(fs)
	addr := fs.String("addr", "", "listen address (default from config, :8080)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one log file")
	}

	cfg, logger, err := common.setup()
	if err != nil {
		return err
	}
	defer logger.Close()
	if *addr != "" {
		cfg.Serve.Addr = *addr
	}

	banner("serve " + fs.Arg(0))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return controller.NewServeController(cfg, fs.Arg(0)).Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "sstab.yaml", "path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := utils.LoadConfig(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good ✅\n", *cfgPath)
	return nil
}
