// Package config holds application defaults and their environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"MeetBoard/internal/state"
)

const envPrefix = "MEETBOARD_"

// DefaultPalette is the toolbar's color swatch set.
var DefaultPalette = []string{
	"#000000", "#e03131", "#2f9e44", "#1971c2",
	"#f08c00", "#9c36b5", "#0ca678", "#666666",
}

type Config struct {
	WindowWidth  float32
	WindowHeight float32

	Mode    state.Mode
	Color   string
	Width   int
	Palette []string

	ExportName string
	PDFName    string

	SharePort  int
	ShareOnRun bool

	LogLevel logrus.Level
}

func Default() Config {
	return Config{
		WindowWidth:  1024,
		WindowHeight: 768,
		Mode:         state.ModePen,
		Color:        "#000000",
		Width:        2,
		Palette:      append([]string(nil), DefaultPalette...),
		ExportName:   "whiteboard.png",
		PDFName:      "whiteboard.pdf",
		SharePort:    8888,
		LogLevel:     logrus.InfoLevel,
	}
}

// InitialTool is the toolbar selection at startup.
func (c Config) InitialTool() state.Tool {
	return state.Tool{Mode: c.Mode, Style: state.Style{Color: c.Color, Width: c.Width}}
}

// Load reads an optional .env file from envFile (ignored when missing) and
// applies MEETBOARD_* variables over the defaults.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup applies overrides found through lookup to the defaults.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	get := func(key string) (string, bool) {
		v, ok := lookup(envPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("MODE"); ok {
		m, err := state.ParseMode(v)
		if err != nil {
			return Config{}, fmt.Errorf("%sMODE: %w", envPrefix, err)
		}
		c.Mode = m
	}
	if v, ok := get("COLOR"); ok {
		c.Color = strings.ToLower(v)
	}
	if v, ok := get("WIDTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%sWIDTH: %w", envPrefix, err)
		}
		c.Width = n
	}
	if v, ok := get("PALETTE"); ok {
		c.Palette = nil
		for _, hex := range strings.Split(v, ",") {
			hex = strings.ToLower(strings.TrimSpace(hex))
			if err := (state.Style{Color: hex, Width: state.MinWidth}).Validate(); err != nil {
				return Config{}, fmt.Errorf("%sPALETTE: %w", envPrefix, err)
			}
			c.Palette = append(c.Palette, hex)
		}
	}
	if v, ok := get("EXPORT_NAME"); ok {
		c.ExportName = v
	}
	if v, ok := get("SHARE_PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 65535 {
			return Config{}, fmt.Errorf("%sSHARE_PORT: invalid port %q", envPrefix, v)
		}
		c.SharePort = n
	}
	if v, ok := get("SHARE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%sSHARE: %w", envPrefix, err)
		}
		c.ShareOnRun = b
	}
	if v, ok := get("LOG_LEVEL"); ok {
		lvl, err := logrus.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%sLOG_LEVEL: %w", envPrefix, err)
		}
		c.LogLevel = lvl
	}

	if err := c.InitialTool().Style.Validate(); err != nil {
		return Config{}, fmt.Errorf("initial tool: %w", err)
	}
	return c, nil
}
