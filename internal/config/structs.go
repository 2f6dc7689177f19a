package config

// Config represents the complete configuration for the rxscan application.
// It supports loading from configuration files, environment variables, and
// command-line flags.
type Config struct {
	// Global settings
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Field extraction vocabularies
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract" json:"extract"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// PipelineConfig contains scan pipeline settings.
type PipelineConfig struct {
	MaxDimension    int             `mapstructure:"max_dimension" yaml:"max_dimension" json:"max_dimension"`
	ConfidenceFloor float64         `mapstructure:"confidence_floor" yaml:"confidence_floor" json:"confidence_floor"`
	Scene           SceneConfig     `mapstructure:"scene" yaml:"scene" json:"scene"`
	Tesseract       TesseractConfig `mapstructure:"tesseract" yaml:"tesseract" json:"tesseract"`
}

// SceneConfig contains scene-text engine settings.
type SceneConfig struct {
	DetectionModelPath   string  `mapstructure:"detection_model_path" yaml:"detection_model_path" json:"detection_model_path"`
	RecognitionModelPath string  `mapstructure:"recognition_model_path" yaml:"recognition_model_path" json:"recognition_model_path"`
	DictPath             string  `mapstructure:"dict_path" yaml:"dict_path" json:"dict_path"`
	MinRegionSize        int     `mapstructure:"min_region_size" yaml:"min_region_size" json:"min_region_size"`
	ContrastThreshold    float64 `mapstructure:"contrast_threshold" yaml:"contrast_threshold" json:"contrast_threshold"`
	ContrastAdjust       float64 `mapstructure:"contrast_adjust" yaml:"contrast_adjust" json:"contrast_adjust"`
	WidthRatio           float64 `mapstructure:"width_ratio" yaml:"width_ratio" json:"width_ratio"`
	MaskThreshold        float64 `mapstructure:"mask_threshold" yaml:"mask_threshold" json:"mask_threshold"`
	MaxDetectionSide     int     `mapstructure:"max_detection_side" yaml:"max_detection_side" json:"max_detection_side"`
	NumThreads           int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// TesseractConfig contains dense OCR engine settings.
type TesseractConfig struct {
	Language       string `mapstructure:"language" yaml:"language" json:"language"`
	TessdataPrefix string `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix" json:"tessdata_prefix"`
}

// ExtractConfig contains the field extraction vocabularies.
type ExtractConfig struct {
	DosageForms []string `mapstructure:"dosage_forms" yaml:"dosage_forms" json:"dosage_forms"`
	Countries   []string `mapstructure:"countries" yaml:"countries" json:"countries"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host               string `mapstructure:"host" yaml:"host" json:"host"`
	Port               int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin         string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB        int64  `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	RequestsPerMinute  int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxUploadPerDayMB  int64  `mapstructure:"max_upload_per_day_mb" yaml:"max_upload_per_day_mb" json:"max_upload_per_day_mb"`
	CacheTTLSec        int    `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec" json:"cache_ttl_sec"`
	DatabasePath       string `mapstructure:"database_path" yaml:"database_path" json:"database_path"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec" json:"shutdown_timeout_sec"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}
