package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cliffyan/go-problem-search/internal/client"
	"github.com/cliffyan/go-problem-search/internal/config"
	"github.com/cliffyan/go-problem-search/internal/engine"
	"github.com/cliffyan/go-problem-search/internal/scraper"
	"github.com/cliffyan/go-problem-search/internal/store"
)

var (
	cfg        *config.Config
	configFile string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "problems",
	Short: "Search and collect competitive programming problems",
	Long:  "problems scrapes Codeforces, CodeChef, LeetCode and HackerRank into a local catalogue and searches it by keywords.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		if configFile != "" {
			loaded, err := config.LoadFromFile(configFile)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		}
		cfg = config.Load()
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// search 命令参数
var (
	searchDifficulty string
	searchLanguage   string
	searchEndpoint   string
	searchLocal      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search problems through the search service",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		form := client.ValuesForm{
			client.FieldQuery:      {strings.Join(args, " ")},
			client.FieldDifficulty: {searchDifficulty},
			client.FieldLanguage:   {searchLanguage},
		}

		var searcher client.Searcher
		if searchLocal {
			searcher = engine.NewManager(cfg, store.New(cfg.Index.DataFile))
		} else {
			endpoint := cfg.Client.Endpoint
			if searchEndpoint != "" {
				endpoint = searchEndpoint
			}
			searcher = client.New(endpoint, cfg.Client.Timeout)
		}

		trigger := client.NewTrigger(form, searcher, client.NewTerminalList(cmd.OutOrStdout()))
		return trigger.Fire(cmd.Context())
	},
}

// scrape 命令参数
var (
	scrapePlatform string
	scrapeTopic    string
	scrapeLimit    int
	scrapeOutput   string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape problems and save them to the catalogue",
	Long:  "Runs the configured scrape jobs, or a single job when --platform is given, and saves the merged result to the data file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs := cfg.Scraper.Jobs
		if scrapePlatform != "" {
			jobs = []config.ScrapeJob{{Platform: strings.ToLower(scrapePlatform), Topic: scrapeTopic, Limit: scrapeLimit}}
		}

		m := scraper.NewManager(cfg)
		defer m.Close()

		problems, err := m.Run(cmd.Context(), jobs)
		if err != nil {
			return err
		}
		if len(problems) == 0 {
			color.Yellow("⚠️ No problems scraped, catalogue left unchanged\n")
			return nil
		}

		output := cfg.Index.DataFile
		if scrapeOutput != "" {
			output = scrapeOutput
		}
		if err := store.New(output).Save(problems); err != nil {
			return err
		}

		color.Green("✅ Saved %d problems to %s\n", len(problems), output)
		printSummary(engine.Summarize(problems))
		return nil
	},
}

// export 命令参数
var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalogue as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		problems, err := store.New(cfg.Index.DataFile).Load()
		if err != nil {
			return err
		}

		switch strings.ToLower(exportFormat) {
		case "csv":
			if exportOutput == "" || exportOutput == "-" {
				return store.ExportCSV(cmd.OutOrStdout(), problems)
			}
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("create %s failed: %w", exportOutput, err)
			}
			if err := store.ExportCSV(f, problems); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		case "xlsx":
			if exportOutput == "" {
				exportOutput = "problems.xlsx"
			}
			if err := store.ExportXLSX(exportOutput, problems); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported format %q (use csv or xlsx)", exportFormat)
		}

		color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "✅ Exported %d problems\n", len(problems))
		return nil
	},
}

// stats 命令参数
var (
	statsPlatform string
	statsTopic    string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the catalogue by platform, topic and difficulty",
	RunE: func(cmd *cobra.Command, args []string) error {
		problems, err := store.New(cfg.Index.DataFile).Load()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				color.Yellow("⚠️ No catalogue at %s, run `problems scrape` first\n", cfg.Index.DataFile)
				return nil
			}
			return err
		}
		if statsPlatform != "" {
			problems = engine.FilterByPlatform(problems, statsPlatform)
		}
		if statsTopic != "" {
			problems = engine.FilterByTopic(problems, statsTopic)
		}
		printSummary(engine.Summarize(problems))
		return nil
	},
}

// printSummary 彩色输出题库统计
func printSummary(s engine.Summary) {
	color.Cyan("📊 Total problems: %d\n", s.Total)
	printCounts("By platform", s.ByPlatform)
	printCounts("By topic", s.ByTopic)
	printCounts("By difficulty", s.ByDifficulty)
}

func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	color.New(color.Bold).Printf("%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %-20s %d\n", k, counts[k])
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: search config.yaml, configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	searchCmd.Flags().StringVarP(&searchDifficulty, "difficulty", "d", "", "difficulty filter (easy, medium, hard)")
	searchCmd.Flags().StringVarP(&searchLanguage, "language", "l", "", "language filter")
	searchCmd.Flags().StringVar(&searchEndpoint, "endpoint", "", "search endpoint (default from config)")
	searchCmd.Flags().BoolVar(&searchLocal, "local", false, "search the local catalogue without a server")

	scrapeCmd.Flags().StringVarP(&scrapePlatform, "platform", "p", "", "scrape a single platform instead of the configured jobs")
	scrapeCmd.Flags().StringVarP(&scrapeTopic, "topic", "t", "", "topic for --platform")
	scrapeCmd.Flags().IntVarP(&scrapeLimit, "limit", "n", 20, "max problems for --platform")
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "catalogue file (default from config)")

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "export format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (csv defaults to stdout)")

	statsCmd.Flags().StringVarP(&statsPlatform, "platform", "p", "", "only count one platform")
	statsCmd.Flags().StringVarP(&statsTopic, "topic", "t", "", "only count topics containing this text")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		color.Red("❌ %v\n", err)
		os.Exit(1)
	}
}
