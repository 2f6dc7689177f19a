// Package config loads and validates application configuration from files,
// environment variables and defaults.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/rxscan/rxscan/internal/extract"
	"github.com/rxscan/rxscan/internal/models"
	"github.com/rxscan/rxscan/internal/ocr/scene"
	"github.com/rxscan/rxscan/internal/ocr/tess"
	"github.com/rxscan/rxscan/internal/pipeline"
	"github.com/rxscan/rxscan/internal/server"
)

// DefaultConfig returns the full default configuration.
func DefaultConfig() Config {
	pipelineDefaults := pipeline.DefaultConfig()
	serverDefaults := server.DefaultConfig()
	extractDefaults := extract.DefaultConfig()

	return Config{
		ModelsDir: models.GetModelsDir(""),
		LogLevel:  "info",
		Verbose:   false,
		Pipeline: PipelineConfig{
			MaxDimension:    pipelineDefaults.MaxDimension,
			ConfidenceFloor: pipelineDefaults.ConfidenceFloor,
			Scene: SceneConfig{
				MinRegionSize:     pipelineDefaults.Scene.MinRegionSize,
				ContrastThreshold: pipelineDefaults.Scene.ContrastThreshold,
				ContrastAdjust:    pipelineDefaults.Scene.ContrastAdjust,
				WidthRatio:        pipelineDefaults.Scene.WidthRatio,
				MaskThreshold:     float64(pipelineDefaults.Scene.MaskThreshold),
				MaxDetectionSide:  pipelineDefaults.Scene.MaxDetectionSide,
			},
			Tesseract: TesseractConfig{
				Language: pipelineDefaults.Tesseract.Language,
			},
		},
		Extract: ExtractConfig{
			DosageForms: extractDefaults.DosageForms,
			Countries:   extractDefaults.Countries,
		},
		Output: OutputConfig{
			Format: "json",
		},
		Server: ServerConfig{
			Host:               serverDefaults.Host,
			Port:               serverDefaults.Port,
			CORSOrigin:         serverDefaults.CORSOrigin,
			MaxUploadMB:        serverDefaults.MaxUploadMB,
			RequestsPerMinute:  serverDefaults.RequestsPerMinute,
			CacheTTLSec:        int(serverDefaults.CacheTTL / time.Second),
			DatabasePath:       serverDefaults.DatabasePath,
			ShutdownTimeoutSec: 10,
		},
		Batch: BatchConfig{
			Workers:         runtime.NumCPU(),
			ContinueOnError: true,
		},
	}
}

var validOutputFormats = []string{"json", "yaml", "text"}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the configuration for invalid settings.
func (c *Config) Validate() error {
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level %q (valid: %v)", c.LogLevel, validLogLevels)
	}
	if !contains(validOutputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format %q (valid: %v)", c.Output.Format, validOutputFormats)
	}
	if c.Pipeline.MaxDimension <= 0 {
		return fmt.Errorf("pipeline.max_dimension must be positive, got %d", c.Pipeline.MaxDimension)
	}
	if c.Pipeline.ConfidenceFloor < 0 || c.Pipeline.ConfidenceFloor > 1 {
		return fmt.Errorf("pipeline.confidence_floor must be in [0,1], got %g", c.Pipeline.ConfidenceFloor)
	}
	if c.Pipeline.Scene.MaskThreshold <= 0 || c.Pipeline.Scene.MaskThreshold >= 1 {
		return fmt.Errorf("pipeline.scene.mask_threshold must be in (0,1), got %g", c.Pipeline.Scene.MaskThreshold)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	return nil
}

// ToPipelineConfig converts the configuration to a pipeline config.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	if c.ModelsDir != "" {
		cfg.ModelsDir = c.ModelsDir
		cfg.Scene.UpdateModelPaths(c.ModelsDir)
	}
	cfg.MaxDimension = c.Pipeline.MaxDimension
	cfg.ConfidenceFloor = c.Pipeline.ConfidenceFloor
	cfg.Scene = c.toSceneConfig(cfg.Scene)
	cfg.Tesseract = tess.Config{
		Language:       c.Pipeline.Tesseract.Language,
		TessdataPrefix: c.Pipeline.Tesseract.TessdataPrefix,
	}
	cfg.Extract = extract.Config{
		DosageForms: c.Extract.DosageForms,
		Countries:   c.Extract.Countries,
	}
	return cfg
}

func (c *Config) toSceneConfig(base scene.Config) scene.Config {
	if c.Pipeline.Scene.DetectionModelPath != "" {
		base.DetectionModelPath = c.Pipeline.Scene.DetectionModelPath
	}
	if c.Pipeline.Scene.RecognitionModelPath != "" {
		base.RecognitionModelPath = c.Pipeline.Scene.RecognitionModelPath
	}
	if c.Pipeline.Scene.DictPath != "" {
		base.DictPath = c.Pipeline.Scene.DictPath
	}
	base.MinRegionSize = c.Pipeline.Scene.MinRegionSize
	base.ContrastThreshold = c.Pipeline.Scene.ContrastThreshold
	base.ContrastAdjust = c.Pipeline.Scene.ContrastAdjust
	base.WidthRatio = c.Pipeline.Scene.WidthRatio
	base.MaskThreshold = float32(c.Pipeline.Scene.MaskThreshold)
	base.MaxDetectionSide = c.Pipeline.Scene.MaxDetectionSide
	base.NumThreads = c.Pipeline.Scene.NumThreads
	return base
}

// ToServerConfig converts the configuration to a server config.
func (c *Config) ToServerConfig() server.Config {
	return server.Config{
		Host:              c.Server.Host,
		Port:              c.Server.Port,
		CORSOrigin:        c.Server.CORSOrigin,
		MaxUploadMB:       c.Server.MaxUploadMB,
		RequestsPerMinute: c.Server.RequestsPerMinute,
		MaxUploadPerDayMB: c.Server.MaxUploadPerDayMB,
		CacheTTL:          time.Duration(c.Server.CacheTTLSec) * time.Second,
		DatabasePath:      c.Server.DatabasePath,
		PipelineConfig:    c.ToPipelineConfig(),
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
