package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/inferbatch/inferbatch/internal/config"
	"github.com/inferbatch/inferbatch/internal/core"
	"github.com/inferbatch/inferbatch/internal/observability"
	"github.com/inferbatch/inferbatch/internal/pipeline"
)

var invokeCmd = &cobra.Command{
	Use:   "invoke [file]",
	Short: "Invoke the inference endpoint for a single record",
	Long: `Read one JSON record from the given file (or stdin when omitted),
invoke the configured inference endpoint, and print the annotated record.

Useful for smoke-testing endpoint configuration before a full batch run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInvoke,
}

func init() {
	rootCmd.AddCommand(invokeCmd)

	invokeCmd.Flags().String("model-id", "", "Bedrock model identifier")
	invokeCmd.Flags().String("region", "", "AWS region for direct model invocation")
	invokeCmd.Flags().String("access-key", "", "AWS access key (defaults to ambient credentials)")
	invokeCmd.Flags().String("secret-key", "", "AWS secret key (defaults to ambient credentials)")
	invokeCmd.Flags().String("workflow-url", "", "workflow endpoint URL")
	invokeCmd.Flags().String("workflow-key", "", "workflow API key")
}

func readInvokeRecord(args []string) (core.Record, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}

	var record core.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return record, nil
}

func runInvoke(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := overlayInvokeFlags(cmd, cfg); err != nil {
		return err
	}
	if _, err := cfg.Variant(); err != nil {
		return err
	}

	record, err := readInvokeRecord(args)
	if err != nil {
		return err
	}

	caller, err := pipeline.BuildCaller(cmd.Context(), cfg, observability.CLILogger)
	if err != nil {
		return err
	}

	annotated, err := caller.Call(cmd.Context(), record)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(annotated)
}

func overlayInvokeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	targets := map[string]*string{
		"model-id":     &cfg.Model.ID,
		"region":       &cfg.Model.Region,
		"access-key":   &cfg.Model.AccessKey,
		"secret-key":   &cfg.Model.SecretKey,
		"workflow-url": &cfg.Workflow.URL,
		"workflow-key": &cfg.Workflow.APIKey,
	}
	for name, target := range targets {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*target = value
	}

	return nil
}
