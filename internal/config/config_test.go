package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/ironsheep/truck-parking-mcp/internal/classify"
	"github.com/ironsheep/truck-parking-mcp/internal/detection"
	"github.com/ironsheep/truck-parking-mcp/internal/estimate"
	"github.com/ironsheep/truck-parking-mcp/internal/tiles"
)

func TestLoadDefaults(t *testing.T) {
	is := is.New(t)

	cfg, err := Load()
	is.NoErr(err)

	is.Equal(cfg.Imagery, tiles.DefaultConfig())
	is.Equal(cfg.Detection, detection.DefaultParams())
	is.Equal(cfg.Orientation, detection.DefaultOrientationParams())
	is.Equal(cfg.Classifier, classify.DefaultConfig())
	is.Equal(cfg.Grid, estimate.DefaultConfig())
	is.Equal(cfg.Batch.Workers, 4)
	is.Equal(cfg.Batch.Region, nil)
	is.Equal(cfg.Cache.Backend, CacheMemory)
	is.Equal(cfg.Log.Level, "info")
}

func TestLoadFromEnv(t *testing.T) {
	is := is.New(t)

	t.Setenv("PARKING_IMAGERY_DELAY", "500ms")
	t.Setenv("PARKING_IMAGERY_LAYER", "2023_orthoHR")
	t.Setenv("PARKING_BATCH_WORKERS", "8")
	t.Setenv("PARKING_GRID_MAX_CELLS", "50")
	t.Setenv("PARKING_LOG_LEVEL", "debug")

	cfg, err := Load()
	is.NoErr(err)
	is.Equal(cfg.Imagery.Delay, 500*time.Millisecond)
	is.Equal(cfg.Imagery.Layer, "2023_orthoHR")
	is.Equal(cfg.Batch.Workers, 8)
	is.Equal(cfg.Grid.MaxCells, 50)
	is.Equal(cfg.Log.Level, "debug")
}

const testYAML = `
imagery:
  width: 400
  height: 400
batch:
  workers: 2
  region:
    min_lat: 51.90
    min_lon: 4.00
    max_lat: 51.98
    max_lon: 4.15
classifier:
  bands:
    - type: truck
      label: Truck
      color: "#ef4444"
      width: {min: 3, max: 5}
      length: {min: 12, max: 25}
      area: {min: 36, max: 125}
cache:
  backend: valkey
  valkey_addr: cache:6379
  ttl: 1h
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parking.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	is := is.New(t)

	cfg, err := LoadFile(writeConfig(t, testYAML))
	is.NoErr(err)

	is.Equal(cfg.Imagery.Width, 400)
	is.Equal(cfg.Imagery.Layer, "Actueel_orthoHR") // untouched keys keep defaults
	is.Equal(cfg.Batch.Workers, 2)
	is.True(cfg.Batch.Region != nil)
	is.Equal(cfg.Batch.Region.MaxLon, 4.15)

	is.Equal(len(cfg.Classifier.Bands), 1) // a configured list replaces the defaults
	is.Equal(cfg.Classifier.Bands[0].Type, classify.VehicleType("truck"))
	is.Equal(cfg.Classifier.Bands[0].Length, classify.Range{Min: 12, Max: 25})
	is.Equal(cfg.Classifier.RowLengthM, 40.0)

	is.Equal(cfg.Cache.Backend, CacheValkey)
	is.Equal(cfg.Cache.TTL, time.Hour)
}

func TestLoadWithFlags(t *testing.T) {
	is := is.New(t)

	path := writeConfig(t, testYAML)
	fs := NewFlagSet("test")
	is.NoErr(fs.Parse([]string{"--config", path, "-w", "6", "--annotate-dir", "/tmp/tiles"}))

	cfg, err := LoadWithFlags(fs)
	is.NoErr(err)
	is.Equal(cfg.Batch.Workers, 6) // flag beats file
	is.Equal(cfg.Batch.AnnotateDir, "/tmp/tiles")
	is.Equal(cfg.Batch.Output, "parking_spaces.geojson") // unset flag keeps default
	is.Equal(cfg.Imagery.Width, 400)                     // file still applies
}

func TestLoadWithFlagsDefaults(t *testing.T) {
	is := is.New(t)

	fs := NewFlagSet("test")
	is.NoErr(fs.Parse(nil))

	cfg, err := LoadWithFlags(fs)
	is.NoErr(err)
	is.Equal(cfg.Batch.Workers, 4)
	is.Equal(cfg.Log.Level, "info")
}

func TestLoadFileMissing(t *testing.T) {
	is := is.New(t)

	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	is.True(err != nil)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"workers", func(c *Config) { c.Batch.Workers = 0 }, "batch.workers"},
		{"aspect", func(c *Config) { c.Detection.AspectMin = 7 }, "aspect_min"},
		{"block size", func(c *Config) { c.Orientation.BlockSize = 10 }, "block_size"},
		{"backend", func(c *Config) { c.Cache.Backend = "redis" }, "cache.backend"},
		{"valkey addr", func(c *Config) { c.Cache.Backend, c.Cache.ValkeyAddr = CacheValkey, "" }, "valkey_addr"},
		{"classifier", func(c *Config) { c.Classifier.RowUnits.Car = 0 }, "classifier:"},
		{"grid", func(c *Config) { c.Grid.MaxCells = 0 }, "grid:"},
		{"layer", func(c *Config) { c.Imagery.Layer = "" }, "imagery.layer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)

			cfg, err := Load()
			is.NoErr(err)
			tt.mutate(cfg)

			err = cfg.Validate()
			is.True(err != nil)
			is.True(strings.Contains(err.Error(), tt.want))
		})
	}
}
