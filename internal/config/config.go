package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Panel    PanelConfig
	BotAPI   BotAPIConfig
	Telegram TelegramConfig
	Platega  PlategaConfig
	Internal InternalConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	AllowOrigins string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// PanelConfig describes the remnawave subscription panel API.
type PanelConfig struct {
	APIURL         string
	AdminToken     string
	CookiesJSON    string
	DefaultSquadID string
	Timeout        time.Duration
}

// BotAPIConfig is the bot integration endpoint used for panel resync.
type BotAPIConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type TelegramConfig struct {
	BotToken        string
	OperatorChatIDs []int64
}

type PlategaConfig struct {
	APIURL     string
	MerchantID string
	Secret     string
	Timeout    time.Duration
}

type InternalConfig struct {
	Key string
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	panelTimeout, _ := strconv.Atoi(getEnv("PANEL_TIMEOUT_SECONDS", "10"))
	botTimeout, _ := strconv.Atoi(getEnv("BOT_API_TIMEOUT_SECONDS", "60"))
	plategaTimeout, _ := strconv.Atoi(getEnv("PLATEGA_TIMEOUT_SECONDS", "10"))

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "billing"),
			Password: getEnv("DB_PASSWORD", "billing"),
			Name:     getEnv("DB_NAME", "billing"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Panel: PanelConfig{
			APIURL:         strings.TrimRight(getEnv("API_URL", ""), "/"),
			AdminToken:     getEnv("ADMIN_TOKEN", ""),
			CookiesJSON:    getEnv("REMNAWAVE_COOKIES", ""),
			DefaultSquadID: getEnv("DEFAULT_SQUAD_ID", ""),
			Timeout:        time.Duration(panelTimeout) * time.Second,
		},
		BotAPI: BotAPIConfig{
			URL:     strings.TrimRight(getEnv("BOT_API_URL", ""), "/"),
			Token:   getEnv("BOT_API_TOKEN", ""),
			Timeout: time.Duration(botTimeout) * time.Second,
		},
		Telegram: TelegramConfig{
			BotToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
			OperatorChatIDs: parseChatIDs(getEnv("OPERATOR_CHAT_IDS", "")),
		},
		Platega: PlategaConfig{
			APIURL:     strings.TrimRight(getEnv("PLATEGA_API_URL", "https://app.platega.io"), "/"),
			MerchantID: getEnv("PLATEGA_MERCHANT_ID", ""),
			Secret:     getEnv("PLATEGA_SECRET", ""),
			Timeout:    time.Duration(plategaTimeout) * time.Second,
		},
		Internal: InternalConfig{
			Key: getEnv("INTERNAL_API_KEY", "telegram-stars-internal"),
		},
	}

	return cfg, nil
}

func parseChatIDs(raw string) []int64 {
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
