package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoaderConfig configures how configuration is loaded
type LoaderConfig struct {
	ConfigFile      string
	EnvironmentFile string
}

// Loader handles loading configuration from multiple sources: struct-tag
// defaults, then an optional YAML file, then an optional environment file,
// then process environment variables. Later sources win.
type Loader struct {
	config LoaderConfig
}

// NewLoader creates a new configuration loader
func NewLoader(cfg LoaderConfig) *Loader {
	return &Loader{config: cfg}
}

// Load loads configuration into the provided struct
func (l *Loader) Load(target interface{}) error {
	if err := l.setDefaults(target); err != nil {
		return fmt.Errorf("failed to set defaults: %w", err)
	}

	if l.config.ConfigFile != "" {
		if err := l.loadFromYAML(target, l.config.ConfigFile); err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if l.config.EnvironmentFile != "" {
		if err := l.loadEnvironmentFile(l.config.EnvironmentFile); err != nil {
			return fmt.Errorf("failed to load environment file: %w", err)
		}
	}

	if err := l.loadFromEnv(target); err != nil {
		return fmt.Errorf("failed to load from environment: %w", err)
	}

	return nil
}

// setDefaults sets default values from struct tags
func (l *Loader) setDefaults(target interface{}) error {
	return l.setDefaultsRecursive(reflect.ValueOf(target))
}

func (l *Loader) setDefaultsRecursive(v reflect.Value) error {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct || (field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct) {
			if err := l.setDefaultsRecursive(field); err != nil {
				return err
			}
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue != "" {
			if err := l.setFieldValue(field, defaultValue); err != nil {
				return fmt.Errorf("failed to set default for field %s: %w", fieldType.Name, err)
			}
		}
	}

	return nil
}

// loadFromYAML loads configuration from a YAML file
func (l *Loader) loadFromYAML(target interface{}, filename string) error {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil // Config file is optional
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	return nil
}

// loadEnvironmentFile loads environment variables from a file
func (l *Loader) loadEnvironmentFile(filename string) error {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil // Environment file is optional
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read environment file %s: %w", filename, err)
	}

	lines := strings.Split(string(data), "\n")
	for lineNum, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid line %d in environment file %s: %s", lineNum+1, filename, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		// Real environment always wins over the file
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func (l *Loader) loadFromEnv(target interface{}) error {
	return l.loadFromEnvRecursive(reflect.ValueOf(target), "")
}

func (l *Loader) loadFromEnvRecursive(v reflect.Value, prefix string) error {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct || (field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct) {
			nestedPrefix := prefix
			if prefix != "" {
				nestedPrefix += "_"
			}
			nestedPrefix += strings.ToUpper(fieldType.Name)
			if err := l.loadFromEnvRecursive(field, nestedPrefix); err != nil {
				return err
			}
			continue
		}

		envName := fieldType.Tag.Get("env")
		if envName == "" {
			envName = prefix
			if prefix != "" {
				envName += "_"
			}
			envName += strings.ToUpper(fieldType.Name)
		}

		if value, exists := os.LookupEnv(envName); exists {
			if err := l.setFieldValue(field, value); err != nil {
				return fmt.Errorf("failed to set field %s from env %s: %w", fieldType.Name, envName, err)
			}
		}
	}

	return nil
}

// setFieldValue sets a field value from a string
func (l *Loader) setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			field.SetBool(true)
		case "false", "0", "no", "off":
			field.SetBool(false)
		default:
			return fmt.Errorf("invalid boolean value: %s", value)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration value: %s", value)
			}
			field.SetInt(int64(duration))
		} else {
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %s", value)
			}
			field.SetInt(intVal)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		uintVal, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value: %s", value)
		}
		field.SetUint(uintVal)
	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
		field.SetFloat(floatVal)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}
