package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/matzehuels/choropleth/pkg/errors"
)

// EnvPrefix prefixes every environment variable read by the package.
const EnvPrefix = "CHOROPLETH_"

// readEnvFile returns the variables of a dotenv file without touching the
// process environment.
func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "env file not found: %s", path)
		}
		return nil, nil
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	return vars, nil
}

// applyEnv overrides settings from CHOROPLETH_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"PALETTE":          &c.Palette,
		"FALLBACK":         &c.Fallback,
		"STROKE":           &c.Stroke,
		"HOVER":            &c.Hover,
		"NAME_PROPERTY":    &c.NameProperty,
		"OBJECT":           &c.Object,
		"CACHE_BACKEND":    &c.Cache.Backend,
		"CACHE_DIR":        &c.Cache.Dir,
		"REDIS_ADDR":       &c.Cache.RedisAddr,
		"REDIS_PASSWORD":   &c.Cache.RedisPassword,
		"MONGO_URI":        &c.Cache.MongoURI,
		"MONGO_DATABASE":   &c.Cache.MongoDatabase,
		"MONGO_COLLECTION": &c.Cache.MongoCollection,
		"SERVER_ADDR":      &c.Server.Addr,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"CLASSES":  &c.Classes,
		"REDIS_DB": &c.Cache.RedisDB,
	}
	for name, dst := range ints {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s%s must be an integer", EnvPrefix, name)
		}
		*dst = n
	}

	if v, ok := lookup(EnvPrefix + "STROKE_WIDTH"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%sSTROKE_WIDTH must be a number", EnvPrefix)
		}
		c.StrokeWidth = f
	}
	if v, ok := lookup(EnvPrefix + "LOCATE_POINTS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%sLOCATE_POINTS must be a boolean", EnvPrefix)
		}
		c.LocatePoints = b
	}
	return nil
}
