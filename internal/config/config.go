// Package config loads settings for both commands from an optional
// parking.yaml and PARKING_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ironsheep/truck-parking-mcp/internal/classify"
	"github.com/ironsheep/truck-parking-mcp/internal/detection"
	"github.com/ironsheep/truck-parking-mcp/internal/estimate"
	"github.com/ironsheep/truck-parking-mcp/internal/pipeline"
	"github.com/ironsheep/truck-parking-mcp/internal/tiles"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheValkey = "valkey"
	CacheNone   = "none"
)

// Config holds all application configuration.
type Config struct {
	Imagery     tiles.Config                `mapstructure:"imagery"`
	Detection   detection.Params            `mapstructure:"detection"`
	Orientation detection.OrientationParams `mapstructure:"orientation"`
	Classifier  classify.Config             `mapstructure:"classifier"`
	Grid        estimate.Config             `mapstructure:"grid"`
	Batch       BatchConfig                 `mapstructure:"batch"`
	Cache       CacheConfig                 `mapstructure:"cache"`
	Log         LogConfig                   `mapstructure:"log"`
}

type BatchConfig struct {
	pipeline.BatchConfig `mapstructure:",squash"`

	Output      string `mapstructure:"output"`
	Summary     string `mapstructure:"summary"`
	AnnotateDir string `mapstructure:"annotate_dir"`
	MetricsFile string `mapstructure:"metrics_file"`
}

type CacheConfig struct {
	Backend    string        `mapstructure:"backend"`
	ValkeyAddr string        `mapstructure:"valkey_addr"`
	TTL        time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	return load(viper.New())
}

// LoadFile is Load with an explicit config file instead of the search path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"workers":      "batch.workers",
	"output":       "batch.output",
	"summary":      "batch.summary",
	"annotate-dir": "batch.annotate_dir",
	"metrics-file": "batch.metrics_file",
	"log-level":    "log.level",
}

// NewFlagSet declares the flags LoadWithFlags understands, plus --config.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "config file (default ./parking.yaml or ./configs/parking.yaml)")
	fs.IntP("workers", "w", 0, "facilities analyzed in parallel")
	fs.StringP("output", "o", "", "GeoJSON output path")
	fs.String("summary", "", "run summary JSON path")
	fs.String("annotate-dir", "", "directory for annotated tiles (disabled when empty)")
	fs.String("metrics-file", "", "Prometheus textfile path (disabled when empty)")
	fs.String("log-level", "", "debug, info, warn or error")
	return fs
}

// LoadWithFlags is Load with flags from NewFlagSet layered on top. Only flags
// set on the command line override file and environment values.
func LoadWithFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
	}
	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// Config file (optional unless set explicitly)
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("parking")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	} else if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
	}

	// Environment variables: PARKING_IMAGERY_DELAY → imagery.delay
	v.SetEnvPrefix("PARKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	img := tiles.DefaultConfig()
	v.SetDefault("imagery.base_url", img.BaseURL)
	v.SetDefault("imagery.layer", img.Layer)
	v.SetDefault("imagery.format", img.Format)
	v.SetDefault("imagery.timeout", img.Timeout)
	v.SetDefault("imagery.delay", img.Delay)
	v.SetDefault("imagery.coverage_m", img.CoverageM)
	v.SetDefault("imagery.width", img.Width)
	v.SetDefault("imagery.height", img.Height)
	v.SetDefault("imagery.buffer_m", img.BufferM)
	v.SetDefault("imagery.polygon_width", img.PolygonWidth)
	v.SetDefault("imagery.polygon_height", img.PolygonHeight)

	det := detection.DefaultParams()
	v.SetDefault("detection.blur_sigma", det.BlurSigma)
	v.SetDefault("detection.canny_low", det.CannyLow)
	v.SetDefault("detection.canny_high", det.CannyHigh)
	v.SetDefault("detection.dilations", det.Dilations)
	v.SetDefault("detection.erosions", det.Erosions)
	v.SetDefault("detection.aspect_min", det.AspectMin)
	v.SetDefault("detection.aspect_max", det.AspectMax)
	v.SetDefault("detection.area_min_factor", det.AreaMinFactor)
	v.SetDefault("detection.area_max_factor", det.AreaMaxFactor)
	v.SetDefault("detection.space_width_m", det.SpaceWidthM)
	v.SetDefault("detection.space_length_m", det.SpaceLengthM)
	v.SetDefault("detection.resolution", det.Resolution)
	v.SetDefault("detection.min_contour_pixels", det.MinContourPixels)

	or := detection.DefaultOrientationParams()
	v.SetDefault("orientation.blur_sigma", or.BlurSigma)
	v.SetDefault("orientation.block_size", or.BlockSize)
	v.SetDefault("orientation.c", or.C)
	v.SetDefault("orientation.canny_low", or.CannyLow)
	v.SetDefault("orientation.canny_high", or.CannyHigh)
	v.SetDefault("orientation.hough.threshold", or.Hough.Threshold)
	v.SetDefault("orientation.hough.min_length", or.Hough.MinLength)
	v.SetDefault("orientation.hough.max_gap", or.Hough.MaxGap)
	v.SetDefault("orientation.bin_degrees", or.BinDegrees)
	v.SetDefault("orientation.snap_degrees", or.SnapDegrees)
	v.SetDefault("orientation.snap_angles", or.SnapAngles)

	cl := classify.DefaultConfig()
	v.SetDefault("classifier.bands", cl.Bands)
	v.SetDefault("classifier.min_confidence", cl.MinConfidence)
	v.SetDefault("classifier.row_length_m", cl.RowLengthM)
	v.SetDefault("classifier.row_units.standard_truck", cl.RowUnits.StandardTruck)
	v.SetDefault("classifier.row_units.heavy_truck", cl.RowUnits.HeavyTruck)
	v.SetDefault("classifier.row_units.lzv", cl.RowUnits.LZV)
	v.SetDefault("classifier.row_units.car", cl.RowUnits.Car)

	grid := estimate.DefaultConfig()
	v.SetDefault("grid.max_cells", grid.MaxCells)
	v.SetDefault("grid.efficiency", grid.Efficiency)
	v.SetDefault("grid.truck.width_m", grid.Truck.WidthM)
	v.SetDefault("grid.truck.length_m", grid.Truck.LengthM)
	v.SetDefault("grid.van.width_m", grid.Van.WidthM)
	v.SetDefault("grid.van.length_m", grid.Van.LengthM)

	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.output", "parking_spaces.geojson")
	v.SetDefault("batch.summary", "parking_summary.json")
	v.SetDefault("batch.annotate_dir", "")
	v.SetDefault("batch.metrics_file", "")

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.valkey_addr", "localhost:6379")
	v.SetDefault("cache.ttl", 7*24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Imagery.BaseURL == "" {
		errs = append(errs, "imagery.base_url is required")
	}
	if c.Imagery.Layer == "" {
		errs = append(errs, "imagery.layer is required")
	}
	if c.Imagery.Width <= 0 || c.Imagery.Height <= 0 {
		errs = append(errs, fmt.Sprintf("imagery size must be positive, got %dx%d", c.Imagery.Width, c.Imagery.Height))
	}
	if c.Imagery.PolygonWidth <= 0 || c.Imagery.PolygonHeight <= 0 {
		errs = append(errs, fmt.Sprintf("imagery polygon size must be positive, got %dx%d", c.Imagery.PolygonWidth, c.Imagery.PolygonHeight))
	}
	if c.Imagery.CoverageM <= 0 {
		errs = append(errs, "imagery.coverage_m must be positive")
	}
	if c.Imagery.BufferM < 0 {
		errs = append(errs, "imagery.buffer_m must not be negative")
	}
	if c.Imagery.Delay < 0 {
		errs = append(errs, "imagery.delay must not be negative")
	}

	if c.Detection.AspectMin >= c.Detection.AspectMax {
		errs = append(errs, fmt.Sprintf("detection.aspect_min %.2f must be below aspect_max %.2f", c.Detection.AspectMin, c.Detection.AspectMax))
	}
	if c.Detection.AreaMinFactor >= c.Detection.AreaMaxFactor {
		errs = append(errs, "detection.area_min_factor must be below area_max_factor")
	}
	if c.Detection.SpaceWidthM <= 0 || c.Detection.SpaceLengthM <= 0 {
		errs = append(errs, "detection space size must be positive")
	}
	if c.Orientation.BinDegrees <= 0 || c.Orientation.BinDegrees > 180 {
		errs = append(errs, fmt.Sprintf("orientation.bin_degrees must be in (0, 180], got %v", c.Orientation.BinDegrees))
	}
	if c.Orientation.BlockSize < 3 || c.Orientation.BlockSize%2 == 0 {
		errs = append(errs, fmt.Sprintf("orientation.block_size must be odd and at least 3, got %d", c.Orientation.BlockSize))
	}

	if err := c.Classifier.Validate(); err != nil {
		errs = append(errs, "classifier: "+err.Error())
	}
	if err := c.Grid.Validate(); err != nil {
		errs = append(errs, "grid: "+err.Error())
	}

	if c.Batch.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("batch.workers must be positive, got %d", c.Batch.Workers))
	}
	if r := c.Batch.Region; r != nil && !r.Valid() {
		errs = append(errs, "batch.region must have min < max on both axes")
	}

	switch c.Cache.Backend {
	case CacheMemory, CacheNone:
	case CacheValkey:
		if c.Cache.ValkeyAddr == "" {
			errs = append(errs, "cache.valkey_addr is required for the valkey backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.backend must be memory, valkey or none, got %q", c.Cache.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
