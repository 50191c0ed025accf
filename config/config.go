package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config настройки киоска. Значение собирается один раз в main и
// передаётся компонентам явно.
type Config struct {
	// Контроллер камеры (CCD)
	CCDHost        string
	CCDPort        int
	ConnectTimeout time.Duration
	StageTimeout   time.Duration // бюджет каждого шага рукопожатия
	SettleDelay    time.Duration // пауза после входа перед командами
	ImageTimeout   time.Duration // ожидание файла снимка

	// Каталоги изображений
	WatchDir  string   // куда камера пишет снимки
	TargetDir string   // архив по категориям
	BackupDir string   // дополнительная копия для Err
	ImageExts []string // отслеживаемые расширения

	// Резервный распознаватель
	OCRServiceURL string
	OCRTimeout    time.Duration

	// Хранилище. Пустой путь включает режим без БД (in-memory)
	DBPath string

	// Граница оператора
	HTTPPort string

	// Отображение снимка на киоске
	ImageScale   float64
	ImageOffsetX int
	ImageOffsetY int
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	// Отсутствие .env не ошибка: берём системное окружение
	_ = godotenv.Load()

	cfg := &Config{
		CCDHost:        getEnv("CCD_HOST", "127.0.0.1"),
		CCDPort:        getEnvInt("CCD_PORT", 502),
		ConnectTimeout: getEnvDuration("CCD_CONNECT_TIMEOUT", 3*time.Second),
		StageTimeout:   getEnvDuration("CCD_STAGE_TIMEOUT", 5*time.Second),
		SettleDelay:    getEnvDuration("CCD_SETTLE_DELAY", 200*time.Millisecond),
		ImageTimeout:   getEnvDuration("IMAGE_WAIT_TIMEOUT", 30*time.Second),
		WatchDir:       getEnv("WATCH_DIR", "./images/source"),
		TargetDir:      getEnv("TARGET_DIR", "./images/archive"),
		BackupDir:      getEnv("BACKUP_DIR", ""),
		ImageExts:      splitList(getEnv("IMAGE_EXTS", ".bmp")),
		OCRServiceURL:  getEnv("OCR_SERVICE_URL", "http://127.0.0.1:9000"),
		OCRTimeout:     getEnvDuration("OCR_TIMEOUT", 15*time.Second),
		DBPath:         getEnv("DB_PATH", ""),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		ImageScale:     getEnvFloat("IMAGE_SCALE", 1.0),
		ImageOffsetX:   getEnvInt("IMAGE_OFFSET_X", 0),
		ImageOffsetY:   getEnvInt("IMAGE_OFFSET_Y", 0),
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
