// Package config loads choropleth settings from a TOML file and the
// environment.
//
// Settings are resolved in this order, later sources winning:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file (choropleth.toml in the working directory, or --config)
//  3. Variables from a .env file
//  4. CHOROPLETH_* variables from the process environment
//
// Command-line flags are applied on top by the CLI. The merged result is
// validated with struct tags before use.
//
// A minimal choropleth.toml:
//
//	classes = 7
//	palette = "blues"
//	name_property = "st_nm"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/choropleth/pkg/cache"
	"github.com/matzehuels/choropleth/pkg/errors"
	"github.com/matzehuels/choropleth/pkg/geo"
	"github.com/matzehuels/choropleth/pkg/palette"
	"github.com/matzehuels/choropleth/pkg/pipeline"
)

const (
	// DefaultPath is the config file looked up when none is given.
	DefaultPath = "choropleth.toml"

	// DefaultEnvFile is the dotenv file looked up when none is given.
	DefaultEnvFile = ".env"

	// DefaultServerAddr is the listen address of the serve command.
	DefaultServerAddr = ":8080"
)

// Config holds every user-facing setting.
type Config struct {
	Classes      int     `toml:"classes" validate:"min=1,max=20"`
	Palette      string  `toml:"palette" validate:"required,palette"`
	Fallback     string  `toml:"fallback" validate:"required,hexcolor"`
	Stroke       string  `toml:"stroke" validate:"required,hexcolor"`
	StrokeWidth  float64 `toml:"stroke_width" validate:"gte=0"`
	Hover        string  `toml:"hover" validate:"required,hexcolor"`
	NameProperty string  `toml:"name_property" validate:"required"`
	Object       string  `toml:"object,omitempty"`
	LocatePoints bool    `toml:"locate_points"`

	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects the document cache backend.
type CacheConfig struct {
	Backend         string `toml:"backend" validate:"oneof=file redis mongo none"`
	Dir             string `toml:"dir,omitempty"`
	RedisAddr       string `toml:"redis_addr,omitempty" validate:"required_if=Backend redis,omitempty,hostname_port"`
	RedisPassword   string `toml:"redis_password,omitempty"`
	RedisDB         int    `toml:"redis_db" validate:"gte=0"`
	MongoURI        string `toml:"mongo_uri,omitempty" validate:"required_if=Backend mongo,omitempty,uri"`
	MongoDatabase   string `toml:"mongo_database,omitempty"`
	MongoCollection string `toml:"mongo_collection,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr" validate:"required,hostname_port"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Classes:      pipeline.DefaultClasses,
		Palette:      pipeline.DefaultPalette,
		Fallback:     string(palette.DefaultFallback),
		Stroke:       string(palette.DefaultStroke),
		StrokeWidth:  palette.DefaultStrokeWidth,
		Hover:        string(palette.DefaultHover),
		NameProperty: geo.DefaultNameProperty,
		Cache:        CacheConfig{Backend: cache.BackendFile},
		Server:       ServerConfig{Addr: DefaultServerAddr},
	}
}

// Load reads the config file at path and the dotenv file at envFile, then
// applies the process environment.
//
// An empty path or envFile means the default name; a missing default file is
// not an error, a missing explicitly named file is.
func Load(path, envFile string) (*Config, error) {
	return load(path, envFile, os.LookupEnv)
}

func load(path, envFile string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if err := cfg.readFile(path); err != nil {
		return nil, err
	}

	dotenv, err := readEnvFile(envFile)
	if err != nil {
		return nil, err
	}
	merged := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(merged); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file not found: %s", path)
		}
		return nil
	}

	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

// Validate checks the settings against their constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate config")
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = describe(fe)
	}
	return errors.New(errors.ErrCodeInvalidConfig, "invalid config: %s", strings.Join(msgs, "; "))
}

// PipelineOptions converts the settings into derivation options.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Classes:     c.Classes,
		Palette:     c.Palette,
		Fallback:    palette.Color(c.Fallback),
		Stroke:      palette.Color(c.Stroke),
		StrokeWidth: c.StrokeWidth,
		Hover:       palette.Color(c.Hover),
	}
}

// GeoOptions converts the settings into boundary decoding options.
func (c *Config) GeoOptions() geo.Options {
	return geo.Options{NameProperty: c.NameProperty, Object: c.Object}
}

// CacheOptions converts the settings into cache backend options.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisOptions{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
		},
		Mongo: cache.MongoOptions{
			URI:        c.Cache.MongoURI,
			Database:   c.Cache.MongoDatabase,
			Collection: c.Cache.MongoCollection,
		},
	}
}

// Encode writes the settings as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// =============================================================================
// Validation
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("palette", func(fl validator.FieldLevel) bool {
		_, err := palette.Lookup(fl.Field().String())
		return err == nil
	})
	return v
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "min", "max", "gte":
		return fmt.Sprintf("%s must be %s %s, got %v", field, bound(fe.Tag()), fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "palette":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, strings.Join(palette.Names(), " "), fe.Value())
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex color, got %q", field, fe.Value())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

func bound(tag string) string {
	if tag == "max" {
		return "at most"
	}
	return "at least"
}
