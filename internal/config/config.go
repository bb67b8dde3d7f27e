package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigFile         = "DATACHAT_CONFIG_FILE"
	defaultConfigFileName = "datachat.yaml"
)

type Config struct {
	HTTPAddr string
	DataDir  string
	WebDir   string
	DevMode  bool

	StoreDriver string
	StoreDSN    string

	SessionBackend string
	SessionsDir    string
	StateDBPath    string

	LLMProvider string
	LLMModel    string
	LLMAPIKey   string
	LLMEndpoint string
	LLMTimeout  time.Duration

	TTSAPIKey  string
	TTSVoiceID string
	TTSModelID string
	TTSFormat  string
	TTSTimeout time.Duration
}

// fileConfig mirrors the optional datachat.yaml. Every field is optional and
// environment variables win over it.
type fileConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	DataDir  string `yaml:"data_dir"`
	WebDir   string `yaml:"web_dir"`
	Dev      bool   `yaml:"dev"`

	Store struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"store"`

	Sessions struct {
		Backend string `yaml:"backend"`
		Dir     string `yaml:"dir"`
		StateDB string `yaml:"state_db"`
	} `yaml:"sessions"`

	LLM struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		Endpoint string `yaml:"endpoint"`
		Timeout  string `yaml:"timeout"`
	} `yaml:"llm"`

	TTS struct {
		VoiceID string `yaml:"voice_id"`
		ModelID string `yaml:"model_id"`
		Format  string `yaml:"format"`
		Timeout string `yaml:"timeout"`
	} `yaml:"tts"`
}

// Load reads .env, then the optional YAML file, then the environment.
func Load() (Config, error) {
	loadDotEnv(".env")

	var file fileConfig
	if err := loadFile(&file); err != nil {
		return Config{}, err
	}

	dataDir := getEnv("DATACHAT_DATA_DIR", orDefault(file.DataDir, "data"))
	driver := strings.ToLower(getEnv("DATACHAT_STORE_DRIVER", orDefault(file.Store.Driver, "sqlite")))

	defaultDSN := filepath.Join(dataDir, "corporate_data.db")
	if driver == "postgres" {
		defaultDSN = ""
	}

	cfg := Config{
		HTTPAddr: getEnv("DATACHAT_HTTP_ADDR", orDefault(file.HTTPAddr, ":8080")),
		DataDir:  dataDir,
		WebDir:   getEnv("DATACHAT_WEB_DIR", orDefault(file.WebDir, "web")),
		DevMode:  getBool("DATACHAT_DEV", file.Dev),

		StoreDriver: driver,
		StoreDSN:    getEnv("DATACHAT_STORE_DSN", orDefault(file.Store.DSN, defaultDSN)),

		SessionBackend: strings.ToLower(getEnv("DATACHAT_SESSION_BACKEND", orDefault(file.Sessions.Backend, "file"))),
		SessionsDir:    getEnv("DATACHAT_SESSIONS_DIR", orDefault(file.Sessions.Dir, filepath.Join(dataDir, "sessions"))),
		StateDBPath:    getEnv("DATACHAT_STATE_DB", orDefault(file.Sessions.StateDB, filepath.Join(dataDir, "datachat.db"))),

		LLMProvider: strings.ToLower(getEnv("DATACHAT_LLM_PROVIDER", orDefault(file.LLM.Provider, "openrouter"))),
		LLMModel:    getEnv("DATACHAT_LLM_MODEL", orDefault(file.LLM.Model, "google/gemini-3-flash-preview")),
		LLMAPIKey:   getEnv("DATACHAT_LLM_API_KEY", os.Getenv("OPENROUTER_API_KEY")),
		LLMEndpoint: getEnv("DATACHAT_LLM_ENDPOINT", file.LLM.Endpoint),

		TTSAPIKey:  getEnv("ELEVENLABS_API_KEY", ""),
		TTSVoiceID: getEnv("DATACHAT_TTS_VOICE_ID", orDefault(file.TTS.VoiceID, "Nda4CxqYPMJ65wadFnhJ")),
		TTSModelID: getEnv("DATACHAT_TTS_MODEL_ID", orDefault(file.TTS.ModelID, "eleven_v3")),
		TTSFormat:  getEnv("DATACHAT_TTS_FORMAT", orDefault(file.TTS.Format, "mp3_44100_128")),
	}

	var err error
	if cfg.LLMTimeout, err = getDuration("DATACHAT_LLM_TIMEOUT", file.LLM.Timeout, 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TTSTimeout, err = getDuration("DATACHAT_TTS_TIMEOUT", file.TTS.Timeout, 60*time.Second); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported store driver: %s", c.StoreDriver)
	}
	if c.StoreDriver == "postgres" && strings.TrimSpace(c.StoreDSN) == "" {
		return errors.New("DATACHAT_STORE_DSN is required for the postgres store driver")
	}
	switch c.SessionBackend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unsupported session backend: %s", c.SessionBackend)
	}
	return nil
}

func loadFile(dest *fileConfig) error {
	path := os.Getenv(EnvConfigFile)
	explicit := path != ""
	if !explicit {
		path = defaultConfigFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key, fileValue string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, fileValue)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func loadDotEnv(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, value)
	}
}
