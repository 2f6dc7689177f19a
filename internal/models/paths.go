package models

import (
	"errors"
	"os"
	"path/filepath"
)

// Model file constants to avoid typos and ensure consistency.
const (
	// Scene-text detection model (probability map output).
	DetectionModel = "rxscan_det.onnx"

	// Scene-text recognition model (CTC logits output).
	RecognitionModel = "rxscan_rec.onnx"

	// Character dictionary for CTC decoding, one entry per line.
	Dictionary = "rxscan_keys.txt"
)

// Default models directory.
const DefaultModelsDir = "models"

// Environment variable for models directory override.
const EnvModelsDir = "RXSCAN_MODELS_DIR"

// findProjectRoot finds the project root by looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.New("could not find project root (go.mod not found)")
}

// GetModelsDir returns the models directory path from various sources
// Priority: 1. Explicit modelsDir parameter, 2. Environment variable, 3. Project root + default.
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}

	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}

	if projectRoot, err := findProjectRoot(); err == nil {
		return filepath.Join(projectRoot, DefaultModelsDir)
	}

	return DefaultModelsDir
}

// GetDetectionModelPath returns the path for the detection model.
func GetDetectionModelPath(modelsDir string) string {
	return filepath.Join(GetModelsDir(modelsDir), DetectionModel)
}

// GetRecognitionModelPath returns the path for the recognition model.
func GetRecognitionModelPath(modelsDir string) string {
	return filepath.Join(GetModelsDir(modelsDir), RecognitionModel)
}

// GetDictionaryPath returns the path for the CTC character dictionary.
func GetDictionaryPath(modelsDir string) string {
	return filepath.Join(GetModelsDir(modelsDir), Dictionary)
}
