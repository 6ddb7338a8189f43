package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadEnv.
const (
	EnvName     = "FAULTLINE_NAME"
	EnvVersion  = "FAULTLINE_VERSION"
	EnvHash     = "FAULTLINE_HASH"
	EnvFormat   = "FAULTLINE_FORMAT"
	EnvLogLevel = "FAULTLINE_LOG_LEVEL"
)

// LoadEnv overrides settings from the environment. Dotenv files (".env" when
// none are given) supply values the process environment does not set;
// missing files are skipped. The process environment is not modified.
func (c *Config) LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	fromFiles := map[string]string{}
	for _, f := range files {
		vars, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		for k, v := range vars {
			if _, ok := fromFiles[k]; !ok {
				fromFiles[k] = v
			}
		}
	}
	c.applyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fromFiles[key]
		return v, ok
	})
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvName, &c.Service.Name)
	set(EnvVersion, &c.Service.Version)
	set(EnvHash, &c.Fingerprint.Hash)
	set(EnvFormat, &c.Traceback.Format)
	set(EnvLogLevel, &c.Log.Level)
}
