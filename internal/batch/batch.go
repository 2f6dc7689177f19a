// Package batch processes many packaging images in parallel with a fixed
// worker pool.
package batch

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rxscan/rxscan/internal/extract"
	"github.com/rxscan/rxscan/internal/pipeline"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// Scanner is the subset of the pipeline the batch processor needs.
type Scanner interface {
	Process(ctx context.Context, img image.Image) (*pipeline.Result, error)
}

// Config controls batch processing behavior.
type Config struct {
	// Workers is the number of parallel workers. Zero means one per CPU.
	Workers int

	// ContinueOnError keeps processing remaining files after a failure.
	ContinueOnError bool

	// Recursive descends into directories given as inputs.
	Recursive bool
}

// DefaultConfig returns batch defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         runtime.NumCPU(),
		ContinueOnError: true,
	}
}

// FileResult holds the outcome for a single input file.
type FileResult struct {
	File   string                 `json:"file" yaml:"file"`
	Fields *extract.ProductFields `json:"fields,omitempty" yaml:"fields,omitempty"`
	Text   string                 `json:"text,omitempty" yaml:"text,omitempty"`
	Error  string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary aggregates the results of one batch run. Results keep the input
// file order regardless of worker scheduling.
type Summary struct {
	Results   []FileResult  `json:"results" yaml:"results"`
	Processed int           `json:"processed" yaml:"processed"`
	Failed    int           `json:"failed" yaml:"failed"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

var supportedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// Discover expands the given paths into a list of image files. Directories
// are listed, optionally recursively; unsupported files inside directories
// are skipped while explicitly named files must be supported.
func Discover(paths []string, recursive bool) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			if !supportedExts[strings.ToLower(filepath.Ext(p))] {
				return nil, fmt.Errorf("unsupported image format: %s", p)
			}
			files = append(files, p)
			continue
		}
		dirFiles, err := discoverDir(p, recursive)
		if err != nil {
			return nil, err
		}
		files = append(files, dirFiles...)
	}
	sort.Strings(files)
	return files, nil
}

func discoverDir(dir string, recursive bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if supportedExts[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	return files, nil
}

// Process runs the scanner over all files with cfg.Workers parallel workers.
// With ContinueOnError unset the first failure cancels the remaining work;
// the returned summary still covers everything processed up to that point.
func Process(ctx context.Context, scanner Scanner, files []string, cfg Config) *Summary {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	results := make([]FileResult, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = processOne(ctx, scanner, files[idx])
				if results[idx].Error != "" && !cfg.ContinueOnError {
					cancel()
				}
			}
		}()
	}

feed:
	for idx := range files {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	summary := &Summary{Duration: time.Since(start)}
	for idx, r := range results {
		if r.File == "" {
			// Job never dispatched after cancellation.
			r = FileResult{File: files[idx], Error: context.Canceled.Error()}
		}
		if r.Error == "" {
			summary.Processed++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, r)
	}
	return summary
}

func processOne(ctx context.Context, scanner Scanner, path string) FileResult {
	result := FileResult{File: path}

	img, err := loadImage(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	res, err := scanner.Process(ctx, img)
	if err != nil {
		slog.Debug("batch scan failed", "file", path, "error", err)
		result.Error = err.Error()
		return result
	}

	result.Fields = res.Fields
	result.Text = res.Text
	return result
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // G304: user-provided input path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
