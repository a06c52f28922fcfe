// Package config loads qlab-sync settings from defaults, an optional YAML
// file, a .env file and the environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/zenibako/qlab-sync/qlab"
	"github.com/zenibako/qlab-sync/reconcile"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory
const FileName = "qlab-sync"

// Inventory sources
const (
	SourceOSC = "osc"
	SourceJXA = "jxa"
)

// Config holds all configuration for the application.
type Config struct {
	// QLab holds the connection to the workspace.
	QLab qlab.Config `mapstructure:"qlab"`
	// Sync holds how console cues map to QLab cues.
	Sync reconcile.Config `mapstructure:"sync"`
	// Inventory selects how the existing cues are read.
	Inventory InventoryConfig `mapstructure:"inventory"`
	// Log holds configuration for the logger.
	Log LogConfig `mapstructure:"log"`
}

// InventoryConfig selects the state extraction source.
type InventoryConfig struct {
	// Source is "osc" (the /cueLists request) or "jxa" (osascript on the QLab machine).
	Source string `mapstructure:"source" default:"osc"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" default:"info"`
	// Format is one of text, json, logfmt.
	Format string `mapstructure:"format" default:"text"`
}

// LoadConfig loads configuration from dir. Overrides, keyed like
// "qlab.host", take precedence over everything else; empty values are
// ignored.
func LoadConfig(dir string, overrides map[string]any) (*Config, error) {
	// Ignore error if file doesn't exist
	_ = godotenv.Overload(filepath.Join(dir, ".env"))

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Map environment variables to nested keys (e.g. QLAB_HOST -> qlab.host)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range overrides {
		if reflect.ValueOf(value).IsValid() && !reflect.ValueOf(value).IsZero() {
			v.Set(key, value)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings that cannot work.
func (c *Config) Validate() error {
	switch c.Inventory.Source {
	case SourceOSC, SourceJXA:
	default:
		return fmt.Errorf("invalid inventory source %q (expected %s or %s)", c.Inventory.Source, SourceOSC, SourceJXA)
	}
	if c.QLab.Port <= 0 || c.QLab.ReplyPort <= 0 {
		return fmt.Errorf("invalid QLab ports %d/%d", c.QLab.Port, c.QLab.ReplyPort)
	}
	if c.Sync.AudioPosition < 1 {
		return fmt.Errorf("sync.audio_position must be at least 1, got %d", c.Sync.AudioPosition)
	}
	return nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
