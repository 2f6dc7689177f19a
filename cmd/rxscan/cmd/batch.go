package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rxscan/rxscan/internal/batch"
	"github.com/rxscan/rxscan/internal/config"
)

// batchCmd represents the batch command for parallel image processing.
var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Scan many packaging images in parallel",
	Long: `Scan multiple packaging images in parallel using a worker pool.
Directories are expanded into their image files.

Supported formats: JPEG, PNG, BMP

Examples:
  rxscan batch *.jpg
  rxscan batch photos/ --recursive --workers 8
  rxscan batch photos/ --format yaml --output results.yaml`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

// configToBatchConfig maps the centralized configuration to batch.Config.
// CLI flags override config file values.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) batch.Config {
	batchConfig := batch.DefaultConfig()

	batchConfig.Workers = cfg.Batch.Workers
	if cmd.Flags().Changed("workers") {
		batchConfig.Workers, _ = cmd.Flags().GetInt("workers")
	}

	batchConfig.ContinueOnError = cfg.Batch.ContinueOnError
	if cmd.Flags().Changed("continue-on-error") {
		batchConfig.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	}

	batchConfig.Recursive, _ = cmd.Flags().GetBool("recursive")

	return batchConfig
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	batchConfig := configToBatchConfig(cfg, cmd)

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	outputFile := cfg.Output.File
	if cmd.Flags().Changed("output") {
		outputFile, _ = cmd.Flags().GetString("output")
	}
	quiet, _ := cmd.Flags().GetBool("quiet")

	validFormats := []string{outputFormatJSON, outputFormatYAML, outputFormatText}
	if !containsString(validFormats, format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(validFormats, ", "))
	}

	files, err := batch.Discover(args, batchConfig.Recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no image files found in inputs")
	}

	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Processing %d file(s) with %d worker(s)\n",
			len(files), batchConfig.Workers)
	}

	pl, err := buildPipeline(cfg)
	if err != nil {
		return fmt.Errorf("failed to build scan pipeline: %w", err)
	}
	defer func() {
		if err := pl.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing pipeline: %v\n", err)
		}
	}()

	summary := batch.Process(cmd.Context(), pl, files, batchConfig)

	final, err := formatSummary(summary, format)
	if err != nil {
		return err
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(final), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outputFile)
		}
	} else {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), final); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Done: %d succeeded, %d failed in %s\n",
			summary.Processed, summary.Failed, summary.Duration.Round(time.Millisecond))
	}

	if summary.Failed > 0 && !batchConfig.ContinueOnError {
		return fmt.Errorf("batch processing failed after %d file(s)", summary.Processed)
	}
	return nil
}

// formatSummary renders the batch summary in the requested output format.
func formatSummary(summary *batch.Summary, format string) (string, error) {
	switch format {
	case outputFormatJSON:
		bts, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(bts), nil
	case outputFormatYAML:
		bts, err := yaml.Marshal(summary)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return string(bts), nil
	default:
		var sb strings.Builder
		for i, r := range summary.Results {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(r.File)
			sb.WriteString(":\n")
			if r.Error != "" {
				fmt.Fprintf(&sb, "  error: %s\n", r.Error)
				continue
			}
			writeFieldsText(&sb, r.Fields)
			sb.WriteString("  text: ")
			sb.WriteString(r.Text)
			sb.WriteString("\n")
		}
		return sb.String(), nil
	}
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntP("workers", "w", 0,
		fmt.Sprintf("number of parallel workers (default: %d)", runtime.NumCPU()))
	batchCmd.Flags().Bool("continue-on-error", true, "keep processing after a file fails")
	batchCmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	batchCmd.Flags().StringP("format", "f", "json", "output format (json, yaml, text)")
	batchCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	batchCmd.Flags().Bool("quiet", false, "suppress progress output")
}
