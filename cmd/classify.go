package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/apply-pilot/internal/form"
	"github.com/spigell/apply-pilot/internal/logger"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Classify the fields of a saved application page",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return classify(args[0])
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func classify(path string) error {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	forms, err := form.ParseHTML(string(content))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	classifier, err := newClassifier(ctx, config.Form, logger)
	if err != nil {
		return err
	}

	for i, f := range forms {
		result := classifier.Classify(ctx, f.Fields)
		logger.Info("classified form",
			zap.Int("form", i),
			zap.String("action", f.Action),
			zap.String("submit", f.Submit),
			zap.Int("fields", result.Len()),
		)

		if err := pterm.DefaultTable.WithHasHeader().WithData(classificationTable(result)).Render(); err != nil {
			return err
		}

		_, missing := form.Plan(result, form.Profile(config.Profile))
		for _, m := range missing {
			pterm.Warning.Printfln("required field %q (%s) has no profile value", m.Identifier, m.Purpose)
		}
	}

	return nil
}

func classificationTable(result form.Result) pterm.TableData {
	data := pterm.TableData{{"Group", "Field", "Kind", "Purpose", "Confidence", "Required"}}

	groups := []struct {
		name   string
		fields []form.Field
	}{
		{"required", result.Required},
		{"optional", result.Optional},
		{"file", result.FileUploads},
		{"unknown", result.Unknown},
		{"duplicate", result.Duplicates},
	}

	for _, g := range groups {
		for _, f := range g.fields {
			data = append(data, []string{
				g.name,
				f.Identifier,
				string(f.Kind),
				f.Purpose,
				humanize.FtoaWithDigits(f.Confidence, 2),
				strconv.FormatBool(f.Required),
			})
		}
	}

	return data
}
