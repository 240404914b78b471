package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const DefaultSystemPrompt = "You are a helpful, knowledgeable, and friendly AI assistant. Provide clear, accurate, and helpful responses. Be conversational but professional. If you're unsure about something, acknowledge it honestly."

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Agent    AgentConfig    `mapstructure:"agent"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Client   ClientConfig   `mapstructure:"client"`
	MCP      MCPConfig      `mapstructure:"mcp"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

// UpstreamConfig describes the completion provider the chat proxy forwards to.
// Provider is one of "openai" (any OpenAI-compatible endpoint, OpenRouter by
// default), "doubao" or "qwen". An empty BaseURL selects the provider's own
// default endpoint.
type UpstreamConfig struct {
	Provider     string        `mapstructure:"provider"`
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Temperature  float32       `mapstructure:"temperature"`
	TopP         float32       `mapstructure:"top_p"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DebugRequest bool          `mapstructure:"debug_request"`
}

// MCPConfig configures the todo MCP server. Transport is "stdio" or "sse";
// Address is only used by sse.
type MCPConfig struct {
	Name         string `mapstructure:"name"`
	Version      string `mapstructure:"version"`
	Transport    string `mapstructure:"transport"`
	Address      string `mapstructure:"address"`
	WithLogging  bool   `mapstructure:"with_logging"`
	WithRecovery bool   `mapstructure:"with_recovery"`
}

type AgentConfig struct {
	SystemPrompt string `mapstructure:"system_prompt"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig selects the key-value slot backend: "memory", "file",
// "redis" or "miniredis".
type StorageConfig struct {
	Type     string      `mapstructure:"type"`
	DataDir  string      `mapstructure:"data_dir"`
	FileName string      `mapstructure:"file_name"`
	Redis    RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

var cfg *Config

var apiKeyEnv = map[string][]string{
	"openai": {"OPENROUTER_API_KEY", "OPENAI_API_KEY"},
	"doubao": {"ARK_API_KEY", "DOUBAO_API_KEY"},
	"qwen":   {"DASHSCOPE_API_KEY"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("upstream.provider", "openai")
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.model", "anthropic/claude-sonnet-4")

	v.SetDefault("agent.system_prompt", DefaultSystemPrompt)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization"})
	v.SetDefault("cors.max_age", 43200)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("storage.type", "file")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.file_name", "slots.json")
	v.SetDefault("storage.redis.address", "127.0.0.1:6379")

	v.SetDefault("client.base_url", "http://127.0.0.1:8080")

	v.SetDefault("mcp.name", "taskchat-todos")
	v.SetDefault("mcp.version", "1.0.0")
	v.SetDefault("mcp.transport", "stdio")
	v.SetDefault("mcp.address", "127.0.0.1:8090")
	v.SetDefault("mcp.with_recovery", true)
}

// Load reads configPath (yaml) on top of the built-in defaults. An empty
// configPath loads defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WithMessagef(err, "read config file %s", configPath)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.WithMessagef(err, "parse config file %s", configPath)
	}

	// the config file wins; provider env vars only fill an empty key
	if c.Upstream.APIKey == "" {
		for _, name := range apiKeyEnv[c.Upstream.Provider] {
			if apiKey := os.Getenv(name); apiKey != "" {
				c.Upstream.APIKey = apiKey
				break
			}
		}
	}

	cfg = c
	return c, nil
}

func Get() *Config {
	return cfg
}
