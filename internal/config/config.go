// Package config loads knowledge-mcp's runtime configuration from a YAML
// file with environment variable overrides.
package config

import (
	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for knowledge-mcp. Values come from a
// YAML file (config.yaml) with environment variables overriding for
// fields that support both. Secrets must only come from environment
// variables.
type Config struct {
	// DataDir is the directory holding the SQLite database file.
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:"./data"`

	// Transport selects "stdio" or "http" for the MCP server.
	Transport string `yaml:"transport" env:"TRANSPORT" env-default:"stdio"`
	BindAddr  string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port      string `yaml:"port" env:"PORT" env-default:"8383"`

	Retrieval RetrievalConfig `yaml:"retrieval"`
	Policy    PolicyConfig    `yaml:"policy"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Redis     RedisConfig     `yaml:"redis"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// RetrievalConfig weights the hybrid retriever's three scorers. The fusion
// step uses the weights as given in a weighted sum, without normalizing
// them; when the semantic scorer returns nothing, its weight is moved
// 60/40 onto the lexical and graph weights.
type RetrievalConfig struct {
	LexicalWeight float64 `yaml:"lexical_weight" env:"RETRIEVAL_LEXICAL_WEIGHT" env-default:"0.3"`
	SemanticWeight float64 `yaml:"semantic_weight" env:"RETRIEVAL_SEMANTIC_WEIGHT" env-default:"0.5"`
	GraphWeight   float64 `yaml:"graph_weight" env:"RETRIEVAL_GRAPH_WEIGHT" env-default:"0.2"`
	DefaultLimit  int     `yaml:"default_limit" env:"RETRIEVAL_DEFAULT_LIMIT" env-default:"10"`
}

// PolicyConfig sets the global minimum-confidence floor enforced by the
// policy engine, independent of any per-operation required-field rules.
type PolicyConfig struct {
	MinConfidence float64 `yaml:"min_confidence" env:"POLICY_MIN_CONFIDENCE" env-default:"0.0"`
}

// EmbeddingConfig configures the OpenAI-compatible embedding endpoint used
// by the semantic scorer. Endpoint empty disables semantic scoring.
type EmbeddingConfig struct {
	Endpoint string `yaml:"endpoint" env:"EMBEDDING_ENDPOINT" env-default:""`
	Model    string `yaml:"model" env:"EMBEDDING_MODEL" env-default:"text-embedding-3-small"`
	APIKey   string `yaml:"-" env:"EMBEDDING_API_KEY"`
}

// RedisConfig configures the conflict cache and vector index. Host empty
// disables Redis; callers fall back to in-process substitutes.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// IngestConfig tunes the batched ingestion scheduler.
type IngestConfig struct {
	SyncMaxChars      int `yaml:"sync_max_chars" env:"INGEST_SYNC_MAX_CHARS" env-default:"5000"`
	SyncMaxChunks     int `yaml:"sync_max_chunks" env:"INGEST_SYNC_MAX_CHUNKS" env-default:"20"`
	AsyncMaxInline    int `yaml:"async_max_inline_bytes" env:"INGEST_ASYNC_MAX_INLINE_BYTES" env-default:"900000"`
	BatchChunkSize    int `yaml:"batch_chunk_size" env:"INGEST_BATCH_CHUNK_SIZE" env-default:"10"`
	BatchIntervalSecs int `yaml:"batch_interval_seconds" env:"INGEST_BATCH_INTERVAL_SECONDS" env-default:"1"`
}

// Load reads configuration from the given YAML path, falling back to
// environment variables and then the env-default tags when the file
// does not exist.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err == nil {
			return &cfg, nil
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
