// Package config предоставляет управление конфигурацией приложения
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Files содержит пути входных и выходных файлов.
type Files struct {
	// InputFile - входной файл Excel (лист "Entreprises", колонка "phone").
	InputFile string `yaml:"input_file"`
	// OutputFile - итоговый файл результатов.
	OutputFile string `yaml:"output_file"`
	// AssetsDir - каталог эталонных изображений.
	AssetsDir string `yaml:"assets_dir"`
	// ScriptsDir - каталог JS-сниппетов.
	ScriptsDir string `yaml:"scripts_dir"`
}

// Vision содержит параметры сопоставления изображений.
type Vision struct {
	// Confidence - порог уверенности по умолчанию.
	Confidence float64 `yaml:"confidence"`
	// Scales - кандидатные масштабы шаблонов по умолчанию.
	Scales []float64 `yaml:"scales"`
	// UseOpenCV - использовать основной сопоставитель OpenCV;
	// при false сразу работает структурный запасной вариант.
	UseOpenCV bool `yaml:"use_opencv"`
}

// Timing содержит таймауты и интервалы рабочего процесса.
type Timing struct {
	OuterTimeoutSeconds    float64 `yaml:"outer_timeout_seconds"`
	DetectorTimeoutSeconds float64 `yaml:"detector_timeout_seconds"`
	SnippetTimeoutSeconds  float64 `yaml:"snippet_timeout_seconds"`
	PrefetchGraceSeconds   float64 `yaml:"prefetch_grace_seconds"`
	PollIntervalMS         int     `yaml:"poll_interval_ms"`
	SettleDelayMS          int     `yaml:"settle_delay_ms"`
	TypeIntervalMS         int     `yaml:"type_interval_ms"`
	InterNumberPauseMS     int     `yaml:"inter_number_pause_ms"`
}

// Snippets содержит параметры канала ввода сниппетов.
type Snippets struct {
	// ChunkSize - символов на блок при быстром наборе
	// (уменьшить, если VM теряет символы).
	ChunkSize int `yaml:"chunk_size"`
	// ChunkDelayMS - задержка между блоками.
	ChunkDelayMS int `yaml:"chunk_delay_ms"`
	// EditorCommand - команда внешнего редактора для режима копирования
	// файла вместо набора (пусто - режим набора).
	EditorCommand string `yaml:"editor_command"`
	// EditorKillCommand - команда закрытия редактора после копирования.
	EditorKillCommand string `yaml:"editor_kill_command"`
}

// Resolver выбирает стратегию определения исхода поиска.
type Resolver struct {
	// Strategy: "local" - гонка горутин, "watcher" - удалённый JS-наблюдатель.
	Strategy string `yaml:"strategy"`
}

// Fallbacks содержит статические координаты, используемые когда
// ни один шаблон не найден.
type Fallbacks struct {
	SearchBarX int `yaml:"search_bar_x"`
	SearchBarY int `yaml:"search_bar_y"`
}

// Logging содержит конфигурацию логирования.
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Config содержит конфигурацию приложения.
type Config struct {
	Files     Files     `yaml:"files"`
	Vision    Vision    `yaml:"vision"`
	Timing    Timing    `yaml:"timing"`
	Snippets  Snippets  `yaml:"snippets"`
	Resolver  Resolver  `yaml:"resolver"`
	Fallbacks Fallbacks `yaml:"fallbacks"`
	Logging   Logging   `yaml:"logging"`
}

// LoadConfig загружает конфигурацию из config.yml, .env файла
// или переменных окружения, поверх значений по умолчанию.
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла, если он существует
	if err := godotenv.Load(); err != nil {
		// Отсутствие .env - это нормально
	}

	cfg := Default()

	if data, err := os.ReadFile("config.yml"); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides накладывает переменные окружения поверх файла.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CRM_INPUT_FILE"); v != "" {
		cfg.Files.InputFile = v
	}
	if v := os.Getenv("CRM_OUTPUT_FILE"); v != "" {
		cfg.Files.OutputFile = v
	}
	if v := os.Getenv("CRM_ASSETS_DIR"); v != "" {
		cfg.Files.AssetsDir = v
	}
	if v := os.Getenv("CRM_SCRIPTS_DIR"); v != "" {
		cfg.Files.ScriptsDir = v
	}
	if v := os.Getenv("CRM_RESOLVER"); v != "" {
		cfg.Resolver.Strategy = v
	}
	if v := os.Getenv("CRM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CRM_OUTER_TIMEOUT_SECONDS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Timing.OuterTimeoutSeconds = f
		}
	}
}

// OuterTimeout возвращает внешний таймаут гонки детекторов.
func (c *Config) OuterTimeout() time.Duration {
	return time.Duration(c.Timing.OuterTimeoutSeconds * float64(time.Second))
}

// DetectorTimeout возвращает таймаут одного детектора.
func (c *Config) DetectorTimeout() time.Duration {
	return time.Duration(c.Timing.DetectorTimeoutSeconds * float64(time.Second))
}

// SnippetTimeout возвращает таймаут ожидания результата сниппета.
func (c *Config) SnippetTimeout() time.Duration {
	return time.Duration(c.Timing.SnippetTimeoutSeconds * float64(time.Second))
}

// PrefetchGrace возвращает льготный период pre-fetch детектора.
func (c *Config) PrefetchGrace() time.Duration {
	return time.Duration(c.Timing.PrefetchGraceSeconds * float64(time.Second))
}

// PollInterval возвращает интервал опроса экрана.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Timing.PollIntervalMS) * time.Millisecond
}

// SettleDelay возвращает паузу стабилизации после действия.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Timing.SettleDelayMS) * time.Millisecond
}

// TypeInterval возвращает интервал между символами при наборе.
func (c *Config) TypeInterval() time.Duration {
	return time.Duration(c.Timing.TypeIntervalMS) * time.Millisecond
}

// InterNumberPause возвращает паузу между номерами.
func (c *Config) InterNumberPause() time.Duration {
	return time.Duration(c.Timing.InterNumberPauseMS) * time.Millisecond
}

// ChunkDelay возвращает задержку между блоками набора.
func (c *Config) ChunkDelay() time.Duration {
	return time.Duration(c.Snippets.ChunkDelayMS) * time.Millisecond
}

// Validate проверяет, являются ли значения конфигурации допустимыми.
func (c *Config) Validate() error {
	if c.Files.InputFile == "" {
		return fmt.Errorf("files.input_file не может быть пустым")
	}
	if c.Files.OutputFile == "" {
		return fmt.Errorf("files.output_file не может быть пустым")
	}
	if c.Vision.Confidence <= 0 || c.Vision.Confidence > 1 {
		return fmt.Errorf("vision.confidence должен быть в интервале (0,1]")
	}
	if len(c.Vision.Scales) == 0 {
		return fmt.Errorf("vision.scales не может быть пустым")
	}
	if c.Timing.OuterTimeoutSeconds <= 0 {
		return fmt.Errorf("timing.outer_timeout_seconds должно быть положительным")
	}
	if c.Timing.DetectorTimeoutSeconds <= 0 {
		return fmt.Errorf("timing.detector_timeout_seconds должно быть положительным")
	}
	if c.Timing.PrefetchGraceSeconds < 0 {
		return fmt.Errorf("timing.prefetch_grace_seconds должно быть неотрицательным")
	}
	if c.Timing.PollIntervalMS <= 0 {
		return fmt.Errorf("timing.poll_interval_ms должно быть положительным")
	}
	if c.Snippets.ChunkSize <= 0 {
		return fmt.Errorf("snippets.chunk_size должно быть положительным")
	}
	switch c.Resolver.Strategy {
	case "local", "watcher":
		// all good
	default:
		return fmt.Errorf("resolver.strategy должен быть одним из: local, watcher")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "text", "json":
		// all good
	default:
		return fmt.Errorf("logging.format должен быть одним из: text, json")
	}
	return nil
}
