package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/apply-pilot/internal/bot"
	"github.com/spigell/apply-pilot/internal/filtering"
	"github.com/spigell/apply-pilot/internal/form"
	"github.com/spigell/apply-pilot/internal/logger"
	"github.com/spigell/apply-pilot/internal/matching"
	"github.com/spigell/apply-pilot/internal/posting"
	"github.com/spigell/apply-pilot/internal/store"
)

const (
	PromptYes               = "Yes"
	PromptNo                = "No"
	PromptReportByCompanies = "Report by companies"
	PromptFilters           = "Show filters"
	PromptPostingsToFile    = "Dump postings to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptYes, PromptNo, PromptReportByCompanies, PromptFilters, PromptPostingsToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Filter postings and apply to the ones left",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("do-not-exclude-applied", "f", false, "do not exclude postings already applied to")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before applying")
	runCmd.Flags().StringP("exclude-file", "e", "", "file with postings to exclude. Default is unset.")
	runCmd.Flags().StringP("postings", "p", "", "file with collected postings (json or yaml)")

	viper.BindPFlag("exclude-file", runCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("postings", runCmd.Flags().Lookup("postings"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the apply-pilot", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if strings.TrimSpace(config.Postings) == "" {
		logger.Fatal("postings file is required", zap.String("hint", "set 'postings' in the config or pass --postings"))
	}

	postings, err := posting.LoadFile(config.Postings)
	if err != nil {
		logger.Fatal("loading postings", zap.Error(err))
	}

	logger.Info("loaded postings", zap.String("file", config.Postings), zap.Int("count", postings.Len()))

	if postings.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no postings found"))
		return
	}

	repo, err := newStore(config.Store, logger)
	if err != nil {
		logger.Fatal("opening application store", zap.Error(err))
	}
	if repo != nil {
		defer repo.Close()
	}

	steps, err := prepareFilters(cmd, config, repo, logger)
	if err != nil {
		logger.Fatal("preparing filters", zap.Error(err))
	}

	postings, err = filtering.Run(ctx, logger, steps, postings)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if postings.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no postings left after filters"))
		return
	}

	for {
		action := PromptYes
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		logger.Info("current list of postings", zap.Int("count", postings.Len()))

		if err := handleAction(ctx, action, config, postings, steps, repo, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, config *Config, postings *posting.Postings, steps []filtering.Filter, repo *store.Repository, logger *zap.Logger) error {
	switch action {
	case PromptYes:
		if err := apply(ctx, config, postings, repo, logger); err != nil {
			return err
		}
		return errExit
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptReportByCompanies:
		pretty, _ := json.MarshalIndent(postings.ReportByCompany(), "", "  ")
		logger.Info(string(pretty), zap.Int("postings count", postings.Len()))
		return nil
	case PromptFilters:
		pretty, _ := json.MarshalIndent(filtering.Describe(steps), "", "  ")
		logger.Info(string(pretty))
		return nil
	case PromptPostingsToFile:
		filename, err := postings.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func apply(ctx context.Context, config *Config, postings *posting.Postings, repo *store.Repository, logger *zap.Logger) error {
	classifier, err := newClassifier(ctx, config.Form, logger)
	if err != nil {
		return fmt.Errorf("building field classifier: %w", err)
	}

	opts := []bot.Option{bot.WithLogger(logger)}

	pool, err := newPool(config.Proxy, logger)
	if err != nil {
		return fmt.Errorf("loading proxies: %w", err)
	}
	if pool != nil {
		working, total := pool.Refresh(ctx)
		logger.Info("proxies checked", zap.Int("working", working), zap.Int("total", total))
		opts = append(opts, bot.WithProxies(pool))
	}

	if repo != nil {
		opts = append(opts, bot.WithRecorder(repo))
	}

	rep, err := newReporter(config.Telegram)
	if err != nil {
		logger.Warn("run summary will not be sent", zap.Error(err))
	}
	if rep != nil {
		opts = append(opts, bot.WithReporter(rep))
	}

	if config.Apply != nil {
		opts = append(opts, bot.WithPause(config.Apply.Delay))
	}

	bar := pb.StartNew(postings.Len())
	opts = append(opts, bot.OnResult(func(bot.ApplicationResult) { bar.Increment() }))

	b, err := bot.New(classifier, form.Profile(config.Profile), sessionFactory(config.Session, logger), opts...)
	if err != nil {
		return err
	}

	stats, err := b.Run(ctx, postings)
	bar.Finish()
	if err != nil {
		return fmt.Errorf("application run interrupted: %w", err)
	}

	logger.Info("successfully finished the run",
		zap.String("run_id", stats.RunID),
		zap.Int("success", stats.Success),
		zap.Int("total", stats.Total),
		zap.Float64("success_rate", stats.SuccessRate()),
	)

	if repo != nil {
		counts, err := repo.Stats(ctx, stats.RunID)
		if err != nil {
			logger.Warn("reading stored run stats", zap.Error(err))
			return nil
		}
		for _, c := range counts {
			logger.Debug("stored results", zap.String("status", c.Status), zap.Int64("count", c.Total))
		}
	}

	return nil
}

func prepareFilters(cmd *cobra.Command, config *Config, repo *store.Repository, logger *zap.Logger) ([]filtering.Filter, error) {
	criteria, err := matching.DecodeCriteria(config.Criteria)
	if err != nil {
		return nil, err
	}

	engine := matching.New(matching.DefaultTables().Merge(config.Matching))

	var companies []string
	if config.Apply != nil && config.Apply.Exclude != nil {
		companies = config.Apply.Exclude.Companies
	}

	steps := []filtering.Filter{
		filtering.NewCriteria(engine, criteria, logger),
		filtering.NewExcludedCompanies(companies, logger),
		prepareAppliedHistoryFilter(cmd, repo, logger),
		filtering.NewExcludeFile(config.ExcludeFile, logger),
	}

	if repo == nil {
		filtering.DisableByName(steps, "applied_history", "store is not configured")
	}
	if strings.TrimSpace(config.ExcludeFile) == "" {
		filtering.DisableByName(steps, "exclude_file", "exclude file is not set")
	}

	return steps, nil
}

func prepareAppliedHistoryFilter(cmd *cobra.Command, repo *store.Repository, logger *zap.Logger) filtering.Filter {
	ignore := false
	if cmd != nil {
		flag := cmd.Flag("do-not-exclude-applied")
		if flag != nil && strings.EqualFold(flag.Value.String(), "true") {
			ignore = true
		}
	}

	deps := &filtering.AppliedHistoryDeps{Logger: logger}
	if repo != nil {
		deps.History = repo
	}

	return filtering.NewAppliedHistory(&filtering.AppliedHistoryConfig{Ignore: ignore}, deps)
}
