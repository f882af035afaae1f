// Package config provides configuration loading and management.
package config

import (
	"image/color"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/user/framereader/pkg/frame"
	"github.com/user/framereader/pkg/postproc"
	"github.com/user/framereader/pkg/reader"
	"github.com/user/framereader/pkg/video"
)

// Config represents the full configuration of framereader.
type Config struct {
	// Decoding
	AspectRatio       string `yaml:"aspect_ratio"`
	Deinterlace       bool   `yaml:"deinterlace"`
	PixelFormat       string `yaml:"pixel_format"`
	ScaleQuality      string `yaml:"scale_quality"`
	PlaybackCacheSize int    `yaml:"playback_cache_size"`
	FFmpegPath        string `yaml:"ffmpeg_path"`

	Analysis   AnalysisConfig   `yaml:"analysis"`
	Thumbnails ThumbnailsConfig `yaml:"thumbnails"`

	LogLevel string `yaml:"log_level"`
}

// AnalysisConfig bounds bulk imports into memory.
type AnalysisConfig struct {
	MaxSeconds   float64 `yaml:"max_seconds"`
	MaxMemoryMiB int     `yaml:"max_memory_mib"`
}

// ThumbnailsConfig controls summaries and the contact sheet.
type ThumbnailsConfig struct {
	Count           int    `yaml:"count"`
	Width           int    `yaml:"width"`
	Columns         int    `yaml:"columns"`
	Gap             int    `yaml:"gap"`
	BackgroundColor string `yaml:"background_color"`
	TextColor       string `yaml:"text_color"`
	FontPath        string `yaml:"font_path"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		AspectRatio:       video.AspectAuto.String(),
		PixelFormat:       video.PixelFormatRGBA32.String(),
		ScaleQuality:      "bilinear",
		PlaybackCacheSize: frame.DefaultCacheSize,

		Analysis: AnalysisConfig{
			MaxSeconds:   12,
			MaxMemoryMiB: 512,
		},
		Thumbnails: ThumbnailsConfig{
			Count:           4,
			Width:           200,
			Columns:         2,
			Gap:             8,
			BackgroundColor: "#1a1a2e",
			TextColor:       "#ffffff",
		},

		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ToReaderOptions converts Config to reader.Options.
func (c Config) ToReaderOptions() reader.Options {
	opts := reader.DefaultOptions()
	opts.AspectRatio = video.ParseAspectRatio(c.AspectRatio)
	opts.Deinterlace = c.Deinterlace
	opts.PixelFormat = video.ParsePixelFormat(c.PixelFormat)
	opts.ScaleQuality = postproc.ParseQuality(c.ScaleQuality)
	if c.PlaybackCacheSize > 0 {
		opts.CacheSize = c.PlaybackCacheSize
	}
	return opts
}

// ParseColor parses a hex color string to color.Color.
// Malformed values map to black.
func ParseColor(hex string) color.Color {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return color.Black
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
