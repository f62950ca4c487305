package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Everything has a default so the pipeline commands work without a .env file.
type Config struct {
	// Server
	ServerAddr    string
	TempDir       string // where uploads are staged before transcription
	SavedAudioDir string // permanent home of received audio, empty disables saving
	MaxUploadMB   int

	// External model
	ModelURL     string   // HTTP model-serving endpoint
	ModelCommand []string // alternative: command run with audio paths appended
	LabelsFile   string   // optional, one label per line

	// Audio tooling
	FFmpegPath       string
	NormalizeUploads bool // re-encode uploads to SampleRate mono before transcription
	SampleRate       int
	// Extensions scanned through ffprobe in addition to .wav.
	ExtraAudioExts []string

	// Dataset pipeline
	TrainRatio     float64
	SplitSeed      int64
	AugmentSeed    int64
	TrainerCommand []string

	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// Redis prediction cache
	RedisEnabled   bool
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	CacheTTLHours  int
	CacheNamespace string // overrides the model identity used to scope cached labels

	// MySQL prediction history
	DBEnabled  bool
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// MinIO archive of saved audio
	MinioEnabled   bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Optional bearer-token auth for the prediction routes
	JWTSecret string
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvFields splits a command line on whitespace. No quoting support.
func getEnvFields(key string) []string {
	return strings.Fields(os.Getenv(key))
}

// Load loads configuration from a .env file (if present) and the environment.
func Load() *Config {
	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not load .env: %v", err)
	}

	return &Config{
		ServerAddr:    getEnv("SERVER_ADDR", ":5001"),
		TempDir:       getEnv("TEMP_DIR", os.TempDir()),
		SavedAudioDir: getEnv("SAVED_AUDIO_DIR", "./saved_audio"),
		MaxUploadMB:   getEnvInt("MAX_UPLOAD_MB", 32),

		ModelURL:     getEnv("MODEL_URL", "http://127.0.0.1:8500/transcribe"),
		ModelCommand: getEnvFields("MODEL_COMMAND"),
		LabelsFile:   getEnv("LABELS_FILE", ""),

		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		NormalizeUploads: getEnvBool("NORMALIZE_UPLOADS", false),
		SampleRate:       getEnvInt("SAMPLE_RATE", 16000),
		ExtraAudioExts:   getEnvFields("AUDIO_EXTRA_EXTENSIONS"),

		TrainRatio:     getEnvFloat("TRAIN_RATIO", 0.8),
		SplitSeed:      getEnvInt64("SPLIT_SEED", 42),
		AugmentSeed:    getEnvInt64("AUGMENT_SEED", 42),
		TrainerCommand: getEnvFields("TRAINER_COMMAND"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),

		RedisEnabled:   getEnvBool("REDIS_ENABLED", false),
		RedisHost:      getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		CacheTTLHours:  getEnvInt("CACHE_TTL_HOURS", 24),
		CacheNamespace: getEnv("CACHE_NAMESPACE", ""),

		DBEnabled:  getEnvBool("DB_ENABLED", false),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "voicecmd"),

		MinioEnabled:   getEnvBool("MINIO_ENABLED", false),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "voicecmd"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		JWTSecret: os.Getenv("JWT_SECRET"),
	}
}
