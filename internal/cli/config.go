package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigFileName is the base name of the configuration file searched in the
// user config directory and the working directory.
const ConfigFileName = "unpack"

// EnvPrefix prefixes environment overrides, e.g. UNPACK_CACHE_DIR.
const EnvPrefix = "UNPACK"

// Configuration keys.
const (
	keyLogLevel       = "log_level"
	keyAccessible     = "accessible"
	keyCacheDir       = "cache.dir"
	keyCacheMaxBytes  = "cache.max_bytes"
	keyPlainHTTP      = "registry.plain_http"
	keyAnonymous      = "registry.anonymous"
	keyUnattended     = "install.unattended"
	keyAcceptWarnings = "install.accept_warnings"
	keyPendingFile    = "install.pending_file"
	keyRecordName     = "install.record_name"
	keyTempDir        = "install.temp_dir"
	keyCompression    = "build.compression"
)

// loadConfig builds the viper instance used by every command. An explicit
// path must exist; otherwise a missing file is not an error.
func loadConfig(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyAccessible, false)
	v.SetDefault(keyCacheDir, "")
	v.SetDefault(keyCacheMaxBytes, int64(0))
	v.SetDefault(keyPlainHTTP, false)
	v.SetDefault(keyAnonymous, false)
	v.SetDefault(keyUnattended, false)
	v.SetDefault(keyAcceptWarnings, false)
	v.SetDefault(keyPendingFile, "")
	v.SetDefault(keyRecordName, "")
	v.SetDefault(keyTempDir, "")
	v.SetDefault(keyCompression, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigFileName)
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "unpack"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// bindFlags lets changed command flags take precedence over the config file
// and environment. bindings maps flag names to configuration keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) error {
	for name, key := range bindings {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("bind flag %q: no such flag", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}
	return nil
}
