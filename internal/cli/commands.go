// Package cli implements the stocklens command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"StockLens/internal/config"
	"StockLens/internal/export"
	"StockLens/internal/logger"
	"StockLens/internal/model"
	"StockLens/internal/recorder"
	"StockLens/internal/tracing"
)

const defaultConfigPath = "configs/config.yaml"

// skipConfig marks commands that run without loading configuration.
const skipConfig = "skip-config"

type rootOptions struct {
	configPath string
	cfg        *config.Config
}

// NewRootCmd creates the root command.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "stocklens",
		Short: "StockLens - technical, fundamental and news analysis for stocks",
		Long: `StockLens loads price history for a ticker, computes technical indicators,
derives BUY/SELL signals and a recommendation, and adds company fundamentals
and news sentiment. It runs as a one-shot CLI or as a service with a JSON API,
a watchlist scheduler and Telegram alerts.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfig] == "true" {
				return nil
			}
			return opts.load(version)
		},
	}

	rootCmd.AddCommand(newServeCmd(opts, version))
	rootCmd.AddCommand(newAnalyzeCmd(opts))
	rootCmd.AddCommand(newImportCmd(opts))
	rootCmd.AddCommand(newNewsCmd(opts))
	rootCmd.AddCommand(newFundamentalsCmd(opts))
	rootCmd.AddCommand(newVersionCmd(version))

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Configuration file path (default $CONFIG_PATH or "+defaultConfigPath+")")

	return rootCmd
}

// shutdownTracing flushes buffered spans.
var shutdownTracing = tracing.Shutdown

// Execute runs the command tree and flushes spans whether or not the
// command succeeded.
func Execute(ctx context.Context, version string) error {
	return execute(ctx, NewRootCmd(version))
}

func execute(ctx context.Context, root *cobra.Command) error {
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			fmt.Fprintln(os.Stderr, "flush traces:", err)
		}
	}()
	return root.ExecuteContext(ctx)
}

func (o *rootOptions) load(version string) error {
	path := o.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if err := tracing.Init(cfg.Tracing.Enabled, version); err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	o.cfg = cfg
	return nil
}

// newAnalyzeCmd creates the analyze command
func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		market, period, exportPath string
		asJSON                     bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [TICKER]",
		Short: "Run technical analysis for a ticker",
		Long: `Fetch daily history for a ticker and print indicators, signals,
the summary score and the comprehensive recommendation.
Example: stocklens analyze RELIANCE --market indian --period 6mo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.analyzer.Analyze(cmd.Context(), args[0], marketOr(market, opts.cfg), periodOr(period, opts.cfg))
			if err != nil {
				return err
			}
			if exportPath != "" {
				path := exportTarget(exportPath, export.TechnicalFilename(d.Series.Last().Time))
				if err := writeFile(path, func(w io.Writer) error {
					return export.WriteTechnicalCSV(w, d.Series.Bars, d.Indicators)
				}); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("exported "+path))
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), d)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderDashboard(d))
			return nil
		},
	}

	cmd.Flags().StringVar(&market, "market", "", "Market: international or indian (default from config)")
	cmd.Flags().StringVar(&period, "period", "", "History period: "+strings.Join(model.Periods, ", "))
	cmd.Flags().StringVar(&exportPath, "export", "", "Write the indicator table as CSV to this file or directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the dashboard as JSON")
	return cmd
}

// newImportCmd creates the import command
func newImportCmd(opts *rootOptions) *cobra.Command {
	var (
		market, symbol string
		dryRun, asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "import [FILE]",
		Short: "Clean and analyze a CSV of daily bars",
		Long: `Read a CSV with Date, Open, High, Low, Close and Volume columns (or an NSE
export with --market indian), clean it, print a data quality report and
analyze it. The cleaned bars and the report are stored unless --dry-run is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			a, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			if dryRun {
				a.analyzer.Recorder = recorder.NewNoopRecorder()
			}

			if symbol == "" {
				symbol = symbolFromFile(args[0])
			}
			res, err := a.analyzer.Upload(cmd.Context(), f, symbol, marketOr(market, opts.cfg))
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderUpload(res))
			return nil
		},
	}

	cmd.Flags().StringVar(&market, "market", "", "CSV layout: international or indian (default from config)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "Symbol to record the data under (default from the file name)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Analyze without storing anything")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// newNewsCmd creates the news command
func newNewsCmd(opts *rootOptions) *cobra.Command {
	var (
		source string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "news [TICKER]",
		Short: "Show recent news and keyword sentiment for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.analyzer.News(cmd.Context(), source, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderNews(res))
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "News source: yahoo, marketaux, newsapi, finnhub or scraper (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// newFundamentalsCmd creates the fundamentals command
func newFundamentalsCmd(opts *rootOptions) *cobra.Command {
	var (
		exportPath string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "fundamentals [TICKER]",
		Short: "Show company fundamentals, ratios and statements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			f, report, err := a.analyzer.Fundamentals(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if exportPath != "" {
				path := exportTarget(exportPath, export.FundamentalsFilename(f.Symbol))
				if err := writeFile(path, func(w io.Writer) error {
					return export.WriteFundamentalsCSV(w, f)
				}); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("exported "+path))
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderFundamentals(report))
			return nil
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "Write the metrics as CSV to this file or directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Annotations: map[string]string{skipConfig: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "StockLens %s\n", version)
		},
	}
}

func marketOr(flag string, cfg *config.Config) model.Market {
	if flag != "" {
		return model.Market(strings.ToLower(flag))
	}
	return model.Market(cfg.App.Market)
}

func periodOr(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.App.Period
}

// exportTarget joins name onto p when p is an existing directory.
func exportTarget(p, name string) string {
	if fi, err := os.Stat(p); err == nil && fi.IsDir() {
		return filepath.Join(p, name)
	}
	return p
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write export: %w", err)
	}
	return f.Close()
}

// symbolFromFile turns "data/infy_2024.csv" into "INFY_2024".
func symbolFromFile(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
