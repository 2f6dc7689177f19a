package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rxscan/rxscan/internal/config"
	"github.com/rxscan/rxscan/internal/extract"
	"github.com/rxscan/rxscan/internal/pipeline"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

const (
	outputFormatJSON = "json"
	outputFormatYAML = "yaml"
	outputFormatText = "text"
)

// scanOutput is the per-file result written by the image and batch commands.
type scanOutput struct {
	File   string                 `json:"file" yaml:"file"`
	Fields *extract.ProductFields `json:"fields" yaml:"fields"`
	Text   string                 `json:"text" yaml:"text"`
}

// imageCmd represents the image command.
var imageCmd = &cobra.Command{
	Use:   "image [files...]",
	Short: "Scan packaging images and extract product fields",
	Long: `Scan one or more packaging images, recognize the printed text and
extract structured product fields.

Supported formats: JPEG, PNG, BMP

Examples:
  rxscan image box.jpg
  rxscan image *.png --format yaml
  rxscan image box.jpg --output result.json`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		cfg := GetConfig()

		format := cfg.Output.Format
		outputFile := cfg.Output.File
		floor := cfg.Pipeline.ConfidenceFloor

		if floor < 0 || floor > 1 {
			return fmt.Errorf("invalid confidence floor: %.2f (must be between 0.0 and 1.0)", floor)
		}
		validFormats := []string{outputFormatJSON, outputFormatYAML, outputFormatText}
		if !containsString(validFormats, format) {
			return fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(validFormats, ", "))
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

		var results []scanOutput
		for _, path := range args {
			if !isSupportedImage(path) {
				return fmt.Errorf("unsupported image format: %s", path)
			}
			img, err := loadImage(path)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", path, err)
			}
			res, err := pl.Process(cmd.Context(), img)
			if err != nil {
				return fmt.Errorf("scan failed for %s: %w", path, err)
			}
			results = append(results, scanOutput{
				File:   path,
				Fields: res.Fields,
				Text:   res.Text,
			})
		}

		final, err := formatResults(results, format)
		if err != nil {
			return err
		}

		if outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(final), 0o600); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outputFile); err != nil {
				return err
			}
			return nil
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), final); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	},
}

// buildPipeline constructs a pipeline from the resolved configuration.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	b := pipeline.NewBuilder().
		WithModelsDir(cfg.ModelsDir).
		WithMaxDimension(cfg.Pipeline.MaxDimension).
		WithConfidenceFloor(cfg.Pipeline.ConfidenceFloor).
		WithThreads(cfg.Pipeline.Scene.NumThreads).
		WithDetectionModelPath(cfg.Pipeline.Scene.DetectionModelPath).
		WithRecognitionModelPath(cfg.Pipeline.Scene.RecognitionModelPath).
		WithDictionaryPath(cfg.Pipeline.Scene.DictPath).
		WithTesseractLanguage(cfg.Pipeline.Tesseract.Language).
		WithTessdataPrefix(cfg.Pipeline.Tesseract.TessdataPrefix).
		WithVocabularies(extract.Config{
			DosageForms: cfg.Extract.DosageForms,
			Countries:   cfg.Extract.Countries,
		})
	return b.Build()
}

// formatResults renders the results in the requested output format.
func formatResults(results []scanOutput, format string) (string, error) {
	switch format {
	case outputFormatJSON:
		bts, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(bts), nil
	case outputFormatYAML:
		bts, err := yaml.Marshal(results)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return string(bts), nil
	default:
		var sb strings.Builder
		for i, r := range results {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(r.File)
			sb.WriteString(":\n")
			writeFieldsText(&sb, r.Fields)
			sb.WriteString("  text: ")
			sb.WriteString(r.Text)
			sb.WriteString("\n")
		}
		return sb.String(), nil
	}
}

func writeFieldsText(sb *strings.Builder, fields *extract.ProductFields) {
	if fields == nil {
		return
	}
	writeField := func(name string, value *string) {
		if value != nil {
			fmt.Fprintf(sb, "  %s: %s\n", name, *value)
		}
	}
	writeField("brand_name", fields.BrandName)
	writeField("generic_name", fields.GenericName)
	writeField("dosage_form", fields.DosageForm)
	writeField("strength", fields.Strength)
	writeField("manufacturer_country", fields.ManufacturerCountry)
	writeField("certificate_number", fields.CertificateNumber)
	writeField("batch_number", fields.BatchNumber)
	writeField("pack_size", fields.PackSize)
	if fields.ExpiryDate != nil {
		fmt.Fprintf(sb, "  expiry_date: %s\n", fields.ExpiryDate.Format("2006-01-02"))
	}
	writeField("description", fields.Description)
	writeField("precaution", fields.Precaution)
}

var supportedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

func isSupportedImage(path string) bool {
	return supportedImageExts[strings.ToLower(filepath.Ext(path))]
}

// loadImage opens and decodes an image file.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // G304: user-provided input path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func addImageFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "json", "output format (json, yaml, text)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().Float64("confidence-floor", 0.5, "minimum fragment confidence kept during merge (0..1)")
	cmd.Flags().Int("max-dimension", 4096, "maximum image side length before downscaling")
	cmd.Flags().String("det-model", "", "override detection model path")
	cmd.Flags().String("rec-model", "", "override recognition model path")
	cmd.Flags().String("dict", "", "override character dictionary path")
	cmd.Flags().Int("threads", 0, "ONNX intra-op thread count (0=runtime default)")
	cmd.Flags().StringP("language", "l", "eng", "Tesseract traineddata language")
	cmd.Flags().String("tessdata", "", "override Tesseract traineddata directory")
}

// bindImageFlags binds the image flags to viper configuration keys.
func bindImageFlags(cmd *cobra.Command) {
	flagBindings := []struct {
		key  string
		flag string
	}{
		{"output.format", "format"},
		{"output.file", "output"},
		{"pipeline.confidence_floor", "confidence-floor"},
		{"pipeline.max_dimension", "max-dimension"},
		{"pipeline.scene.detection_model_path", "det-model"},
		{"pipeline.scene.recognition_model_path", "rec-model"},
		{"pipeline.scene.dict_path", "dict"},
		{"pipeline.scene.num_threads", "threads"},
		{"pipeline.tesseract.language", "language"},
		{"pipeline.tesseract.tessdata_prefix", "tessdata"},
	}

	for _, binding := range flagBindings {
		if err := viper.BindPFlag(binding.key, cmd.Flags().Lookup(binding.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", binding.flag, err))
		}
	}
}

func init() {
	rootCmd.AddCommand(imageCmd)

	addImageFlags(imageCmd)
	bindImageFlags(imageCmd)
}

// GetImageCommand returns the image command for testing purposes.
func GetImageCommand() *cobra.Command {
	return imageCmd
}
