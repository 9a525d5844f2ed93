// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ConfigFileName = "config.json"
	ConfigDirName  = "stratus"
	// ConfigPathEnv overrides the location of the config file
	ConfigPathEnv = "STRATUS_CONFIG"
)

type GCPConfig struct {
	Project         string `mapstructure:"project"`
	CredentialsFile string `mapstructure:"credentials_file"`
	// Endpoint targets an emulator such as fake-gcs-server; authentication is skipped
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
}

type AWSConfig struct {
	Region          string `mapstructure:"region" validate:"omitempty,lowercase"`
	Profile         string `mapstructure:"profile"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
}

type AzureConfig struct {
	Account   string `mapstructure:"account" validate:"omitempty,lowercase,alphanum,min=3,max=24"`
	AccessKey string `mapstructure:"access_key"`
	Endpoint  string `mapstructure:"endpoint" validate:"omitempty,url"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

type LocalConfig struct {
	Root string `mapstructure:"root"`
}

type ListConfig struct {
	// PageSize caps the number of blobs per ListBlobs page. Zero uses the provider default.
	PageSize int `mapstructure:"page_size" validate:"gte=0,lte=1000"`
}

type Config struct {
	GCP   *GCPConfig   `mapstructure:"gcp"`
	AWS   *AWSConfig   `mapstructure:"aws"`
	Azure *AzureConfig `mapstructure:"azure"`
	MinIO *MinIOConfig `mapstructure:"minio"`
	Local *LocalConfig `mapstructure:"local"`
	List  ListConfig   `mapstructure:"list"`
}

type valueKind int

const (
	stringValue valueKind = iota
	boolValue
	intValue
)

type keySpec struct {
	kind valueKind
	// env names the environment variable that may supply this key
	env string
}

// The settable keys. Credential references are bound to the environment
// variables their SDKs conventionally read, but the values always flow
// through Config into the adapters explicitly.
var knownKeys = map[string]keySpec{
	"gcp.project":           {},
	"gcp.credentials_file":  {env: "GOOGLE_APPLICATION_CREDENTIALS"},
	"gcp.endpoint":          {},
	"aws.region":            {env: "AWS_REGION"},
	"aws.profile":           {env: "AWS_PROFILE"},
	"aws.access_key_id":     {env: "AWS_ACCESS_KEY_ID"},
	"aws.secret_access_key": {env: "AWS_SECRET_ACCESS_KEY"},
	"aws.endpoint":          {},
	"aws.force_path_style":  {kind: boolValue},
	"azure.account":         {env: "AZURE_STORAGE_ACCOUNT"},
	"azure.access_key":      {env: "AZURE_SECRET_ACCESS_KEY"},
	"azure.endpoint":        {},
	"minio.endpoint":        {env: "MINIO_ENDPOINT"},
	"minio.access_key":      {env: "MINIO_ACCESS_KEY"},
	"minio.secret_key":      {env: "MINIO_SECRET_KEY"},
	"minio.use_ssl":         {kind: boolValue},
	"minio.region":          {},
	"local.root":            {},
	"list.page_size":        {kind: intValue},
}

// KnownKeys returns the sorted list of settable configuration keys.
func KnownKeys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ConfigManager owns the persisted configuration file.
//
// Values set through the manager are written to disk. Environment variables
// and env-file entries are layered on top only when LoadConfig builds the
// runtime Config, so they are never persisted.
type ConfigManager struct {
	file     *viper.Viper
	path     string
	envFile  map[string]string
	lookup   func(string) (string, bool)
	validate *validator.Validate
}

// Creates a manager for the default config location
func NewConfigManager() (*ConfigManager, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewConfigManagerAt(path)
}

// Creates a manager for the config file at path, reading it if it exists
func NewConfigManagerAt(path string) (*ConfigManager, error) {
	m := &ConfigManager{
		path:     path,
		lookup:   os.LookupEnv,
		validate: validator.New(),
	}

	v := newFileViper()
	if data, err := os.ReadFile(path); err == nil {
		if len(strings.TrimSpace(string(data))) > 0 {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	m.file = v
	return m, nil
}

func newFileViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	return v
}

func getConfigPath() (string, error) {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", ConfigDirName, ConfigFileName), nil
}

// Path returns the location of the persisted config file
func (m *ConfigManager) Path() string {
	return m.path
}

// LoadEnvFile reads KEY=VALUE pairs from a dotenv file. Entries whose names
// match a bound environment variable fill the corresponding config key at
// the lowest precedence. The process environment is not modified.
func (m *ConfigManager) LoadEnvFile(path string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("error reading env file %s: %w", path, err)
	}
	m.envFile = values
	return nil
}

// LoadConfig builds the runtime configuration.
//
// Precedence, highest first: process environment, config file, env file.
func (m *ConfigManager) LoadConfig() (*Config, error) {
	rt := viper.New()
	if err := rt.MergeConfigMap(m.file.AllSettings()); err != nil {
		return nil, fmt.Errorf("error merging config: %w", err)
	}

	for key, spec := range knownKeys {
		if spec.env == "" {
			continue
		}
		if val, ok := m.envFile[spec.env]; ok && val != "" && !rt.IsSet(key) {
			rt.SetDefault(key, val)
		}
		if val, ok := m.lookup(spec.env); ok && val != "" {
			rt.Set(key, val)
		}
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error building config decoder: %w", err)
	}
	if err := decoder.Decode(rt.AllSettings()); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if err := m.validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// SetValue validates key and value and persists them
func (m *ConfigManager) SetValue(key, value string) error {
	key = strings.ToLower(key)
	spec, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s. Known keys: %s", key, strings.Join(KnownKeys(), ", "))
	}

	switch spec.kind {
	case boolValue:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("config key %s expects true or false, got '%s'", key, value)
		}
		m.file.Set(key, b)
	case intValue:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config key %s expects an integer, got '%s'", key, value)
		}
		m.file.Set(key, n)
	default:
		m.file.Set(key, value)
	}

	return m.save()
}

// GetValue returns the persisted value for key
func (m *ConfigManager) GetValue(key string) (interface{}, bool) {
	key = strings.ToLower(key)
	if !m.file.IsSet(key) {
		return nil, false
	}
	return m.file.Get(key), true
}

// DeleteValue removes key from the persisted config, reporting whether it was set
func (m *ConfigManager) DeleteValue(key string) (bool, error) {
	key = strings.ToLower(key)
	if !m.file.IsSet(key) {
		return false, nil
	}

	settings := m.file.AllSettings()
	if !deleteNested(settings, strings.Split(key, ".")) {
		return false, nil
	}

	fresh := newFileViper()
	if err := fresh.MergeConfigMap(settings); err != nil {
		return false, fmt.Errorf("error rebuilding config: %w", err)
	}
	m.file = fresh

	if err := m.save(); err != nil {
		return false, err
	}
	return true, nil
}

// GetAllSettings returns the persisted settings as a nested map
func (m *ConfigManager) GetAllSettings() map[string]interface{} {
	return m.file.AllSettings()
}

func (m *ConfigManager) save() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := m.file.WriteConfigAs(m.path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Removes the value at path from a nested settings map, pruning emptied parents
func deleteNested(settings map[string]interface{}, path []string) bool {
	if len(path) == 0 {
		return false
	}
	if len(path) == 1 {
		if _, ok := settings[path[0]]; !ok {
			return false
		}
		delete(settings, path[0])
		return true
	}

	child, ok := settings[path[0]].(map[string]interface{})
	if !ok {
		return false
	}
	if !deleteNested(child, path[1:]) {
		return false
	}
	if len(child) == 0 {
		delete(settings, path[0])
	}
	return true
}
