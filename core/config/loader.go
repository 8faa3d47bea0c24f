package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFileName is the config file looked up in the working directory
	// when no explicit path is given.
	DefaultFileName = "apicompat"

	envPrefix = "APICOMPAT"
)

// Load reads the configuration at path, or looks for apicompat.{json,yaml,yml}
// in the working directory when path is empty. A missing default file yields
// Default(). Rule flags can be overridden from the environment, e.g.
// APICOMPAT_TREAT_ADDED_MEMBER_AS_BREAKING=true.
//
// The returned configuration is not validated; call Validate before use.
func Load(path string) (Configuration, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	for _, f := range ruleFlags {
		if err := v.BindEnv("override."+f.name, envPrefix+"_"+f.env); err != nil {
			return Configuration{}, fmt.Errorf("binding env for %s: %w", f.name, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultFileName)
		v.AddConfigPath(".")
	}

	cfg := Default()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Configuration{}, fmt.Errorf("reading config: %w", err)
		}
	} else {
		// Viper folds keys to lower case and splits them on dots, which would
		// corrupt namespace and type names used as map keys. Decode the file
		// body directly so those keys are preserved verbatim.
		used := v.ConfigFileUsed()
		data, err := os.ReadFile(used)
		if err != nil {
			return Configuration{}, fmt.Errorf("reading config %s: %w", used, err)
		}
		if err := decode(used, data, &cfg); err != nil {
			return Configuration{}, fmt.Errorf("decoding config %s: %w", used, err)
		}
	}

	for _, f := range ruleFlags {
		key := "override." + f.name
		if v.IsSet(key) {
			*f.ptr(&cfg.BreakingChangeRules) = v.GetBool(key)
		}
	}

	if cfg.Mappings.NamespaceMappings == nil {
		cfg.Mappings.NamespaceMappings = map[string][]string{}
	}
	if cfg.Mappings.TypeMappings == nil {
		cfg.Mappings.TypeMappings = map[string]string{}
	}
	return cfg, nil
}

// Parse decodes a JSON configuration document over Default().
func Parse(data []byte) (Configuration, error) {
	cfg := Default()
	if err := decode("config.json", data, &cfg); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Configuration) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case ".json", "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

// Save writes cfg as indented JSON.
func (c Configuration) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
