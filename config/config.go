// Package config holds the rectifier configuration: YAML file, optional .env file and
// FIDUCIAL_* environment overrides, in that order.
package config

import (
	"image"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nvr-ai/go-fiducial/corners"
	"github.com/nvr-ai/go-fiducial/detector"
	"github.com/nvr-ai/go-fiducial/images"
	"github.com/nvr-ai/go-fiducial/logger"
	"github.com/nvr-ai/go-fiducial/rectify"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FIDUCIAL_"

// DefaultSuffix is appended to the input file name to form the output file name.
const DefaultSuffix = "_rectified"

// Config is the complete rectifier configuration.
type Config struct {
	// Output is the requested output frame.
	Output rectify.OutputSpec `json:"output" yaml:"output"`
	// WorkingWidth and WorkingHeight bound the image the detector sees. Zero selects the
	// output size.
	WorkingWidth  int `json:"working_width" yaml:"working_width"`
	WorkingHeight int `json:"working_height" yaml:"working_height"`
	// Filter is the resampling filter used when shrinking the input.
	Filter images.ResampleFilter `json:"filter" yaml:"filter"`
	// Detector configures the ArUco detector.
	Detector detector.ArucoConfig `json:"detector" yaml:"detector"`
	// Representative selects the point taken from each marker.
	Representative corners.Representative `json:"representative" yaml:"representative"`
	// Backend selects the warp implementation.
	Backend rectify.Backend `json:"backend" yaml:"backend"`
	// Background fills output pixels with no source, as #rrggbb.
	Background string `json:"background" yaml:"background"`
	// Quality is the JPEG/WebP encoding quality of written outputs.
	Quality int `json:"quality" yaml:"quality"`
	// Suffix is appended to input names to form output names.
	Suffix string `json:"suffix" yaml:"suffix"`
	// OutputDir receives outputs; empty writes next to each input.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	// Workers is the number of files processed concurrently.
	Workers int `json:"workers" yaml:"workers"`
	// LogLevel is one of debug, info, warning, error.
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output:         rectify.DefaultOutputSpec(),
		Filter:         images.LanczosFilter,
		Detector:       detector.ArucoConfig{Dictionary: detector.DefaultDictionary},
		Representative: corners.Centroid,
		Backend:        rectify.BackendNative,
		Background:     "#000000",
		Quality:        images.DefaultJPEGQuality,
		Suffix:         DefaultSuffix,
		Workers:        1,
		LogLevel:       "info",
	}
}

// Load builds a configuration from defaults, the YAML file at path (skipped when path is
// empty), a .env file in the working directory if present, and FIDUCIAL_* environment
// variables.
//
// Arguments:
//   - path: Optional YAML configuration file.
//
// Returns:
//   - *Config: The validated configuration.
//   - error: If the file cannot be read or parsed, or the result is invalid.
//
// @example
//
//	cfg, err := config.Load("fiducial.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "config: read %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "config: parse %s", path)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "config: load .env")
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes c as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "config: marshal")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "config: write %s", path)
	}
	return nil
}

// ApplyEnv overrides fields from FIDUCIAL_* environment variables. Unset or empty
// variables leave the field alone; malformed numbers are an error.
func (c *Config) ApplyEnv() error {
	var err error
	if c.Output.Width, err = getEnvAsInt("WIDTH", c.Output.Width); err != nil {
		return err
	}
	if c.Output.Height, err = getEnvAsInt("HEIGHT", c.Output.Height); err != nil {
		return err
	}
	if c.Output.Zoom, err = getEnvAsFloat("ZOOM", c.Output.Zoom); err != nil {
		return err
	}
	c.Output.Anchor = rectify.Anchor(getEnv("ANCHOR", string(c.Output.Anchor)))
	if c.WorkingWidth, err = getEnvAsInt("WORKING_WIDTH", c.WorkingWidth); err != nil {
		return err
	}
	if c.WorkingHeight, err = getEnvAsInt("WORKING_HEIGHT", c.WorkingHeight); err != nil {
		return err
	}
	c.Filter = images.ResampleFilter(getEnv("FILTER", string(c.Filter)))
	c.Detector.Dictionary = getEnv("DICTIONARY", c.Detector.Dictionary)
	minPerimeter, err := getEnvAsFloat("MIN_PERIMETER", float64(c.Detector.MinPerimeter))
	if err != nil {
		return err
	}
	c.Detector.MinPerimeter = float32(minPerimeter)
	c.Representative = corners.Representative(getEnv("REPRESENTATIVE", string(c.Representative)))
	c.Backend = rectify.Backend(getEnv("BACKEND", string(c.Backend)))
	c.Background = getEnv("BACKGROUND", c.Background)
	if c.Quality, err = getEnvAsInt("QUALITY", c.Quality); err != nil {
		return err
	}
	c.Suffix = getEnv("SUFFIX", c.Suffix)
	c.OutputDir = getEnv("OUTPUT_DIR", c.OutputDir)
	if c.Workers, err = getEnvAsInt("WORKERS", c.Workers); err != nil {
		return err
	}
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	return nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if c.WorkingWidth < 0 || c.WorkingHeight < 0 {
		return errors.Errorf("config: working size must not be negative, got %dx%d", c.WorkingWidth, c.WorkingHeight)
	}
	if (c.WorkingWidth == 0) != (c.WorkingHeight == 0) {
		return errors.Errorf("config: working width and height must both be set or both be zero, got %dx%d",
			c.WorkingWidth, c.WorkingHeight)
	}
	if c.Filter != "" && !c.Filter.Valid() {
		return errors.Errorf("config: unknown filter %q", c.Filter)
	}
	if c.Detector.Dictionary != "" {
		if _, err := detector.DictionaryCode(c.Detector.Dictionary); err != nil {
			return errors.Wrap(err, "config")
		}
	}
	if c.Detector.MinPerimeter < 0 {
		return errors.Errorf("config: min perimeter must not be negative, got %f", c.Detector.MinPerimeter)
	}
	if !c.Representative.Valid() && c.Representative != "" {
		return errors.Errorf("config: unknown representative point %q", c.Representative)
	}
	if _, err := rectify.NewWarper(c.Backend); err != nil {
		return errors.Wrap(err, "config")
	}
	if _, err := ParseColor(c.Background); err != nil {
		return err
	}
	if c.Quality < 1 || c.Quality > 100 {
		return errors.Errorf("config: quality must be within [1, 100], got %d", c.Quality)
	}
	if c.Workers < 1 {
		return errors.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "config")
	}
	return nil
}

// WorkingSize returns the bound applied to inputs before detection.
func (c *Config) WorkingSize() image.Point {
	if c.WorkingWidth == 0 || c.WorkingHeight == 0 {
		return image.Pt(c.Output.Width, c.Output.Height)
	}
	return image.Pt(c.WorkingWidth, c.WorkingHeight)
}

// BackgroundColor returns the parsed background colour, black if it does not parse.
func (c *Config) BackgroundColor() color.RGBA {
	bg, err := ParseColor(c.Background)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return bg
}

// ParseColor parses "#rrggbb" or "rrggbb" into an opaque colour. Empty means black.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return color.RGBA{A: 255}, nil
	}
	if len(s) != 6 {
		return color.RGBA{}, errors.Errorf("config: background %q is not #rrggbb", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, errors.Errorf("config: background %q is not #rrggbb", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, errors.Wrapf(err, "config: %s%s", EnvPrefix, key)
	}
	return v, nil
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue, errors.Wrapf(err, "config: %s%s", EnvPrefix, key)
	}
	return v, nil
}
