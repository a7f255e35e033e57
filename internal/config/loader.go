package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// loadEnvFiles loads ENV_FILE when set, otherwise .env.local then .env.
// godotenv never overrides variables that are already present, so the
// earlier file wins.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// loadFile decodes the YAML file at path into T, applies defaults and then
// `env` tag overrides. A missing file is not an error: the service runs on
// defaults plus environment.
func loadFile[T any](path string, setDefaults func(*T)) (*T, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	var cfg T
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, unmarshalErr)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if setDefaults != nil {
		setDefaults(&cfg)
	}
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg any) {
	v := reflect.ValueOf(cfg)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	applyEnvToStruct(v)
}

func applyEnvToStruct(v reflect.Value) {
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := range v.NumField() {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			applyEnvToStruct(field)
			continue
		}

		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		if val := os.Getenv(name); val != "" {
			setFieldFromString(field, val)
		}
	}
}

var durationType = reflect.TypeFor[time.Duration]()

func setFieldFromString(field reflect.Value, val string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)
	case reflect.Int, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			if d, err := time.ParseDuration(val); err == nil {
				field.SetInt(int64(d))
			}
			return
		}
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			field.SetInt(i)
		}
	case reflect.Float64:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			field.SetFloat(f)
		}
	case reflect.Bool:
		field.SetBool(parseBool(val))
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// GetConfigPath returns CONFIG_PATH when set, otherwise defaultPath.
func GetConfigPath(defaultPath string) string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return defaultPath
}
