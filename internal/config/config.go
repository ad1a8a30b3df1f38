package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Port              string
	OpenAIAPIKey      string
	OpenAIModelVision string
	OpenAIModelScript string
	OpenAIModelTTS    string
	BaseURL           string
	ShareSecret       string
	ShareTTL          time.Duration
	MaxUploadBytes    int64
	DataDir           string
	MusicDir          string
	FFmpegPath        string
	FFprobePath       string
	RenderTimeout     time.Duration
}

func LoadConfig() (Config, error) {
	cfg := Config{}

	cfg.Port = envOrDefault("PORT", "8080")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModelVision = envOrDefault("OPENAI_MODEL_VISION", "gpt-4o-mini")
	cfg.OpenAIModelScript = envOrDefault("OPENAI_MODEL_SCRIPT", "gpt-4o-mini")
	cfg.OpenAIModelTTS = envOrDefault("OPENAI_MODEL_TTS", "tts-1")

	cfg.BaseURL = envOrDefault("BASE_URL", fmt.Sprintf("http://localhost:%s", cfg.Port))
	cfg.ShareSecret = envOrDefault("SHARE_SECRET", "change-me")
	cfg.DataDir = envOrDefault("DATA_DIR", "data")
	cfg.MusicDir = envOrDefault("MUSIC_DIR", filepath.Join("assets", "music"))
	cfg.FFmpegPath = envOrDefault("FFMPEG_PATH", "ffmpeg")
	cfg.FFprobePath = envOrDefault("FFPROBE_PATH", "ffprobe")

	shareTTLSeconds, err := parseIntEnv("SHARE_TTL_SECONDS", 86400)
	if err != nil {
		return Config{}, fmt.Errorf("parse SHARE_TTL_SECONDS: %w", err)
	}
	cfg.ShareTTL = time.Duration(shareTTLSeconds) * time.Second

	maxUploadMB, err := parseIntEnv("MAX_UPLOAD_MB", 25)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_UPLOAD_MB: %w", err)
	}
	cfg.MaxUploadBytes = maxUploadMB * 1024 * 1024

	renderTimeoutMinutes, err := parseIntEnv("RENDER_TIMEOUT_MINUTES", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse RENDER_TIMEOUT_MINUTES: %w", err)
	}
	cfg.RenderTimeout = time.Duration(renderTimeoutMinutes) * time.Minute

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = absDataDir

	absMusicDir, err := filepath.Abs(cfg.MusicDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve music dir: %w", err)
	}
	cfg.MusicDir = absMusicDir

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseIntEnv(key string, fallback int64) (int64, error) {
	value := envOrDefault(key, "")
	if value == "" {
		return fallback, nil
	}

	num, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return num, nil
}
