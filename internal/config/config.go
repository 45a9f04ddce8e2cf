package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/nidhogg/fived/internal/embedding"
	"github.com/nidhogg/fived/internal/linker"
	"github.com/nidhogg/fived/internal/vectorstore"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig     `json:"server"`
	Database  DatabaseConfig   `json:"database"`
	Embedding embedding.Config `json:"embedding"`
	Linker    LinkerConfig     `json:"linker"`
	Notify    NotifyConfig     `json:"notify"`
	Knowledge KnowledgeConfig  `json:"knowledge"`
	Session   SessionConfig    `json:"session"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig           `json:"postgres"`
	Neo4j    Neo4jConfig              `json:"neo4j"`
	Redis    RedisConfig              `json:"redis"`
	Qdrant   vectorstore.QdrantConfig `json:"qdrant"`
}

type PostgresConfig struct {
	DSN        string `json:"dsn"`
	Migrations string `json:"migrations"`
}

type Neo4jConfig struct {
	URI      string `json:"uri"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

// LinkerConfig tunes suggestion generation. Zero values fall back to the
// linker defaults; Weights is decoded over linker.DefaultWeights so a config
// only needs the entries it changes.
type LinkerConfig struct {
	MinConfidence  *float64        `json:"min_confidence,omitempty"`
	MaxSuggestions int             `json:"max_suggestions"`
	Weights        *linker.Weights `json:"weights,omitempty"`
}

type NotifyConfig struct {
	Slack   SlackNotifyConfig   `json:"slack"`
	Discord DiscordNotifyConfig `json:"discord"`
}

type SlackNotifyConfig struct {
	Enabled    bool   `json:"enabled"`
	WebhookURL string `json:"webhook_url"`
	Channel    string `json:"channel"`
}

type DiscordNotifyConfig struct {
	Enabled   bool   `json:"enabled"`
	BotToken  string `json:"bot_token"`
	ChannelID string `json:"channel_id"`
}

type KnowledgeConfig struct {
	IndexPath  string `json:"index_path"`
	ChunkSize  int    `json:"chunk_size"`
	Collection string `json:"collection"`
}

type SessionConfig struct {
	TTL Duration `json:"ttl"`
}

// Duration decodes from a Go duration string such as "12h".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// SuggestOptions merges configured thresholds over linker.DefaultOptions.
func (c LinkerConfig) SuggestOptions() linker.Options {
	opts := linker.DefaultOptions()
	if c.MinConfidence != nil {
		opts.MinConfidence = *c.MinConfidence
	}
	if c.MaxSuggestions > 0 {
		opts.MaxSuggestions = c.MaxSuggestions
	}
	return opts
}

// ScoringWeights returns the configured weights or linker.DefaultWeights.
func (c LinkerConfig) ScoringWeights() linker.Weights {
	if c.Weights != nil {
		return *c.Weights
	}
	return linker.DefaultWeights()
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes config JSON after environment substitution and applies defaults.
func Parse(data []byte) (*Config, error) {
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		if v := os.Getenv(parts[1]); v != "" {
			return v
		}
		return parts[2]
	})

	defaults := linker.DefaultWeights()
	cfg := Config{Linker: LinkerConfig{Weights: &defaults}}
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Postgres.Migrations == "" {
		c.Database.Postgres.Migrations = "migrations"
	}
	if c.Knowledge.ChunkSize <= 0 {
		c.Knowledge.ChunkSize = 800
	}
	if c.Knowledge.Collection == "" {
		c.Knowledge.Collection = "knowledge"
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = Duration(12 * time.Hour)
	}
}
