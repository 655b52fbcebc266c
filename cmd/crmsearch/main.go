package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joumichy/botorange/internal/adapters/exporter"
	"github.com/joumichy/botorange/internal/adapters/input"
	"github.com/joumichy/botorange/internal/adapters/source"
	"github.com/joumichy/botorange/internal/adapters/vision"
	"github.com/joumichy/botorange/internal/core/services"
	"github.com/joumichy/botorange/internal/log"
	"github.com/joumichy/botorange/internal/pkg/config"
	"github.com/joumichy/botorange/internal/pkg/license"
	"github.com/joumichy/botorange/internal/ports"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "erreur: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Загрузка конфигурации приложения
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("конфигурация некорректна: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// Проверка лицензии до любого синтетического ввода
	var auth ports.Authorizer = license.New(os.Getenv("CRM_LICENSE_HASH"), licenseDir(), logger.With(slog.String("component", "license")))
	if err := auth.Authorize(); err != nil {
		return err
	}

	// Входные номера
	phones, companies, err := source.NewExcelSource(cfg.Files.InputFile).Load()
	if err != nil {
		return fmt.Errorf("не удалось загрузить входной файл: %w", err)
	}

	logger.Info("входной файл загружен",
		slog.String("file", cfg.Files.InputFile),
		slog.Int("numbers", len(phones)),
	)

	// Сборка компонентов
	catalog := config.NewCatalog(cfg)
	calibration := &services.Calibration{}

	matcher := newMatcher(cfg, logger)
	poller := services.NewPoller(matcher, cfg.PollInterval(), logger.With(slog.String("component", "poller")))
	driver := input.NewDriver(cfg.SettleDelay(), cfg.TypeInterval())

	snippets := services.NewSnippetService(
		services.SnippetOptions{
			ScriptsDir:        cfg.Files.ScriptsDir,
			ChunkSize:         cfg.Snippets.ChunkSize,
			ChunkDelay:        cfg.ChunkDelay(),
			EditorCommand:     cfg.Snippets.EditorCommand,
			EditorKillCommand: cfg.Snippets.EditorKillCommand,
			ResultMarkers:     catalog.ResultMarkers(),
		},
		driver,
		driver,
		poller,
		logger.With(slog.String("component", "snippets")),
	)

	resolver := newResolver(cfg, poller, driver, snippets, catalog, calibration, logger)

	actions := services.NewUIActions(
		matcher,
		driver,
		driver,
		catalog,
		calibration,
		image.Pt(cfg.Fallbacks.SearchBarX, cfg.Fallbacks.SearchBarY),
		logger.With(slog.String("component", "actions")),
	)

	accumulator := services.NewAccumulator()
	results := exporter.NewExcelExporter(cfg.Files.OutputFile)

	orchestrator := services.NewOrchestrator(
		actions,
		resolver,
		snippets,
		poller,
		catalog,
		calibration,
		accumulator,
		results,
		exporter.NewConsoleReporter(os.Stdout),
		cfg,
		logger.With(slog.String("component", "orchestrator")),
	)

	// SIGINT/SIGTERM отменяют контекст; оркестратор сам сбрасывает
	// накопленные строки в частичный файл
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := orchestrator.Run(ctx, phones, companies); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("работа прервана оператором, частичные результаты сохранены")
			return nil
		}
		return err
	}

	return nil
}

// newLogger собирает логгер с уровнем и форматом из конфигурации
// и маскировкой контактных данных.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	switch cfg.Logging.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return slog.New(log.NewContactMaskerHandler(handler))
}

// newMatcher собирает сопоставитель: основной движок OpenCV с чисто
// структурным запасным, либо только запасной, если OpenCV отключён.
func newMatcher(cfg *config.Config, logger *slog.Logger) ports.TemplateMatcher {
	capturer := vision.NewRobotCapturer()
	visionLogger := logger.With(slog.String("component", "vision"))

	if !cfg.Vision.UseOpenCV {
		return vision.NewMatcherWithEngine(capturer, &vision.FallbackEngine{}, visionLogger)
	}

	return vision.NewMatcher(capturer, visionLogger)
}

// newResolver выбирает стратегию определения исхода поиска.
func newResolver(
	cfg *config.Config,
	poller ports.ScreenPoller,
	driver ports.InputDriver,
	snippets ports.SnippetChannel,
	catalog *config.Catalog,
	calibration *services.Calibration,
	logger *slog.Logger,
) ports.SearchResolver {
	resolverLogger := logger.With(slog.String("component", "resolver"))

	if cfg.Resolver.Strategy == "watcher" {
		return services.NewWatcherResolver(snippets, cfg, resolverLogger)
	}

	return services.NewLocalRaceResolver(poller, driver, snippets, catalog, calibration, cfg, resolverLogger)
}

// licenseDir - каталог состояния лицензии в домашнем каталоге оператора.
func licenseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crm"
	}
	return home + string(os.PathSeparator) + ".crm"
}
