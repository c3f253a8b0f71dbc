package config

import (
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	// OneBot gateway
	OneBotWSURL string `env:"ONEBOT_WS_URL" envDefault:"ws://127.0.0.1:3011/"`
	OneBotToken string `env:"ONEBOT_TOKEN"`

	// HTTP control surface
	ServerHost string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort int    `env:"SERVER_PORT" envDefault:"8000"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	AIAPIKey         string      `env:"AI_API_KEY"`
	AIBaseURL        string      `env:"AI_BASE_URL" envDefault:"https://dashscope.aliyuncs.com/compatible-mode/v1"`
	AIModel          string      `env:"AI_MODEL" envDefault:"qwen3-max"`
	AISystemPrompt   string      `env:"AI_SYSTEM_PROMPT" envDefault:"你是一个有用的助手"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// Remote file/command API (MCSManager panel)
	FileAPIBaseURL  string `env:"FILE_API_BASE_URL"`
	FileAPIKey      string `env:"FILE_API_KEY"`
	DefaultDaemonID string `env:"FILE_DEFAULT_DAEMON_ID"`
	DefaultUUID     string `env:"FILE_DEFAULT_UUID"`

	// Player event notifications; zero means disabled
	ServerGroupID int64 `env:"SERVER_GROUP_ID"`

	// Server log tailing
	MCLogPath       string        `env:"MC_LOG_PATH" envDefault:"/logs/latest.log"`
	LogPollInterval time.Duration `env:"LOG_POLL_INTERVAL" envDefault:"10s"`

	// Storage
	MemoryDir      string `env:"MEMORY_DIR" envDefault:"memory"`
	EventsFilePath string `env:"EVENTS_FILE_PATH" envDefault:"data/events_storage.json"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

const sampleEnv = `# mc-bridge configuration. Adjust the values to match your environment.

# OneBot WebSocket gateway
ONEBOT_WS_URL=ws://127.0.0.1:3011/
ONEBOT_TOKEN=your-token-here

# HTTP control surface
SERVER_HOST=0.0.0.0
SERVER_PORT=8000

# AI replies (leave AI_API_KEY empty to disable)
LLM_PROVIDER=openai
AI_API_KEY=
AI_BASE_URL=https://dashscope.aliyuncs.com/compatible-mode/v1
AI_MODEL=qwen3-max
AI_SYSTEM_PROMPT=你是一个有用的助手

# MCSManager file/command API
FILE_API_BASE_URL=http://x.x.x.x/api/files
FILE_API_KEY=your-api-key-here
FILE_DEFAULT_DAEMON_ID=default-daemon-id
FILE_DEFAULT_UUID=default-instance-uuid

# Group to announce player events to (empty disables notifications)
SERVER_GROUP_ID=
`

// EnsureEnvFile writes a commented sample .env on first run so the process can
// start with defaults. An existing file is left untouched.
func EnsureEnvFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.WriteFile(path, []byte(sampleEnv), 0o644); err != nil {
		return err
	}
	log.Printf("created sample config file %s, edit it to match your environment", path)
	return nil
}
