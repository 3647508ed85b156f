package config

import "time"

// ChatConfig configures the conversational agent and its history cache.
// An empty APIKey disables the /v1/chat routes.
type ChatConfig struct {
	APIKey        string
	Model         string
	Temperature   float64
	HistoryTTL    time.Duration
	HistoryPrefix string
	HistoryLimit  int // most recent messages replayed to the model
}

// LoadChatConfig reads GEMINI_* and CHAT_* variables.
func LoadChatConfig() ChatConfig {
	return ChatConfig{
		APIKey:        envStr("GEMINI_API_KEY", ""),
		Model:         envStr("GEMINI_MODEL", "gemini-1.5-flash"),
		Temperature:   envFloat("GEMINI_TEMPERATURE", 0.2),
		HistoryTTL:    envDur("CHAT_HISTORY_TTL", 24*time.Hour),
		HistoryPrefix: envStr("CHAT_HISTORY_PREFIX", "chat_history"),
		HistoryLimit:  envInt("CHAT_HISTORY_LIMIT", 20),
	}
}
