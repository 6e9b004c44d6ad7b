package moviekg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigNotFound is returned when no config file exists in the directory tree.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrInvalidConfig is returned when a loaded config fails validation.
	ErrInvalidConfig = errors.New("invalid config")
)

// Defaults applied before a config file or flags are read.
const (
	DefaultStoreDriver    = "neo4j"
	DefaultBatchSize      = 100
	DefaultQueryTimeout   = 10 * time.Second
	DefaultConnectTimeout = 5 * time.Second
	DefaultListen         = ":8080"
)

// Config represents the .moviekg.yaml configuration file.
// It is built once at process start and handed to each component.
type Config struct {
	// Graph store connection
	Store StoreConfig `yaml:"store"`

	// Tabular input for the build command
	Dataset DatasetConfig `yaml:"dataset,omitempty"`

	// Known-title dictionary for question answering
	Dictionary DictionaryConfig `yaml:"dictionary,omitempty"`

	// Ingestion tuning
	Ingest IngestConfig `yaml:"ingest,omitempty"`

	// HTTP server settings for the serve command
	Server ServerConfig `yaml:"server,omitempty"`
}

// StoreConfig holds connection settings for a graph store.
type StoreConfig struct {
	// Registered store driver name (e.g., "neo4j")
	Driver string `yaml:"driver" validate:"required"`

	// Connection URI (e.g., "bolt://localhost:7687")
	URI string `yaml:"uri" validate:"required"`

	// Optional credentials (if not in URI)
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// Target database; empty means the server default
	Database string `yaml:"database,omitempty"`

	// Bound on establishing/acquiring a connection
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty" validate:"gt=0"`

	// Bound on a single query-time lookup
	QueryTimeout time.Duration `yaml:"query_timeout,omitempty" validate:"gt=0"`
}

// DatasetConfig locates the tabular movie dataset.
type DatasetConfig struct {
	// Local path or s3://bucket/key
	Location string `yaml:"location,omitempty"`

	// Object storage settings, only used for s3:// locations
	S3 S3Config `yaml:"s3,omitempty"`
}

// S3Config configures the S3 client used to fetch datasets.
type S3Config struct {
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
}

// DictionaryConfig locates the known-title dictionary.
type DictionaryConfig struct {
	Path string `yaml:"path,omitempty"`

	// Sort titles by descending length so the longest match wins
	LongestFirst bool `yaml:"longest_first"`
}

// IngestConfig tunes the graph build.
type IngestConfig struct {
	BatchSize int `yaml:"batch_size,omitempty" validate:"min=1"`

	// Optional boolean expression; rows evaluating false are skipped
	Filter string `yaml:"filter,omitempty"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Listen string `yaml:"listen,omitempty" validate:"required"`
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".moviekg.yaml", ".moviekg.yml", "moviekg.yaml", "moviekg.yml"}

// DefaultConfig returns a config with every default applied.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:         DefaultStoreDriver,
			ConnectTimeout: DefaultConnectTimeout,
			QueryTimeout:   DefaultQueryTimeout,
		},
		Dictionary: DictionaryConfig{LongestFirst: true},
		Ingest:     IngestConfig{BatchSize: DefaultBatchSize},
		Server:     ServerConfig{Listen: DefaultListen},
	}
}

// LoadConfig finds and loads the nearest .moviekg.yaml walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
// Keys absent from the file keep their defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the struct tags of the whole config.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}
