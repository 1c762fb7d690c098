package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inferbatch/inferbatch/internal/config"
	"github.com/inferbatch/inferbatch/internal/observability"
	"github.com/inferbatch/inferbatch/internal/output"
	"github.com/inferbatch/inferbatch/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process JSONL inputs through the configured inference endpoint",
	Long: `Read the configured JSONL inputs, invoke the inference endpoint for
every record under the shared rate limit, and write annotated outputs under
<output>/job_<n>/<execution-id>/.

Inputs and outputs may be local paths or s3:// URLs. Exactly one inference
variant must be configured: a Bedrock model (--model-id, --region) or a
workflow endpoint (--workflow-url, --workflow-key).`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSlice("input", nil, "input JSONL file (repeatable; local path or s3:// URL)")
	runCmd.Flags().String("output", "", "output root directory (local path or s3:// URL)")
	runCmd.Flags().Int("rpm", 0, "requests per minute ceiling")
	runCmd.Flags().Int("max-workers", 0, "concurrent inference workers")
	runCmd.Flags().String("model-id", "", "Bedrock model identifier")
	runCmd.Flags().String("region", "", "AWS region for direct model invocation")
	runCmd.Flags().String("access-key", "", "AWS access key (defaults to ambient credentials)")
	runCmd.Flags().String("secret-key", "", "AWS secret key (defaults to ambient credentials)")
	runCmd.Flags().String("workflow-url", "", "workflow endpoint URL")
	runCmd.Flags().String("workflow-key", "", "workflow API key")
	runCmd.Flags().String("format", "table", "summary output format: table, json")
}

// overlayRunFlags applies explicitly set flags on top of the loaded config.
func overlayRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("input") {
		inputs, err := flags.GetStringSlice("input")
		if err != nil {
			return err
		}
		cfg.Inputs = inputs
	}

	stringTargets := map[string]*string{
		"output":       &cfg.OutputRoot,
		"model-id":     &cfg.Model.ID,
		"region":       &cfg.Model.Region,
		"access-key":   &cfg.Model.AccessKey,
		"secret-key":   &cfg.Model.SecretKey,
		"workflow-url": &cfg.Workflow.URL,
		"workflow-key": &cfg.Workflow.APIKey,
	}
	for name, target := range stringTargets {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*target = value
	}

	intTargets := map[string]*int{
		"rpm":         &cfg.RPM,
		"max-workers": &cfg.MaxWorkers,
	}
	for name, target := range intTargets {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*target = value
	}

	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	formatValue, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := overlayRunFlags(cmd, cfg); err != nil {
		return err
	}

	runner := &pipeline.Runner{Logger: observability.CLILogger}
	summary, err := runner.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	rendered, err := output.FormatRunSummary(format, summary)
	if err != nil {
		return err
	}
	if strings.TrimSpace(rendered) != "" {
		fmt.Println(rendered)
	}

	return nil
}
