package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/joumichy/botorange/internal/adapters/parser"
	"github.com/joumichy/botorange/internal/domain"
	"github.com/joumichy/botorange/internal/pkg/config"
	"github.com/joumichy/botorange/internal/ports"
)

// Статусы, которые возвращает JS-наблюдатель.
const (
	watcherStatusInterlocutor = "INTERLOCUTEUR_FOUND"
	watcherStatusNoResult     = "NO_RESULT"
	watcherStatusPrefetch     = "PREFETCH_READY"
)

// WatcherResolver делегирует гонку детекторов странице: один сниппет
// наблюдает DOM и возвращает консолидированный отчёт об исходе поиска.
// Альтернатива локальной гонке для машин, где непрерывный захват экрана
// слишком дорог.
type WatcherResolver struct {
	snippets       ports.SnippetChannel
	logger         *slog.Logger
	snippetTimeout time.Duration
}

// NewWatcherResolver создаёт резолвер на удалённом наблюдателе.
func NewWatcherResolver(snippets ports.SnippetChannel, cfg *config.Config, logger *slog.Logger) *WatcherResolver {
	return &WatcherResolver{
		snippets:       snippets,
		logger:         logger,
		snippetTimeout: cfg.SnippetTimeout(),
	}
}

// Resolve запускает наблюдателя и переводит его отчёт в исход поиска.
// Если наблюдатель сообщил о готовности pre-fetch, данные доснимаются
// отдельным сниппетом, чтобы исход был самодостаточным.
func (r *WatcherResolver) Resolve(ctx context.Context, phone string) (domain.SearchOutcome, error) {
	started := time.Now()

	payload, err := r.snippets.RemoteCall(ctx, SnippetSearchWatcher, r.snippetTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return domain.SearchOutcome{}, ctx.Err()
		}

		r.logger.Warn("наблюдатель не ответил", "phone", phone, "error", err)

		return domain.SearchOutcome{
			Status:    domain.StatusTimeout,
			ElapsedMS: time.Since(started).Milliseconds(),
		}, nil
	}

	status, elapsedMS, ok := parser.ParseWatcherReport(payload)
	if !ok {
		r.logger.Warn("отчёт наблюдателя не разобран", "phone", phone)
		status = ""
	}

	if elapsedMS == 0 {
		elapsedMS = time.Since(started).Milliseconds()
	}

	outcome := domain.SearchOutcome{ElapsedMS: elapsedMS}

	switch status {
	case watcherStatusInterlocutor:
		outcome.Status = domain.StatusInterlocutorFound
	case watcherStatusNoResult:
		outcome.Status = domain.StatusNoResult
	case watcherStatusPrefetch:
		outcome.Status = domain.StatusPrefetchReady
		outcome.PrefetchData = r.fetchPrefetchData(ctx)
	default:
		outcome.Status = domain.StatusTimeout
	}

	r.logger.Info("исход поиска определён",
		"phone", phone,
		"status", string(outcome.Status),
		"elapsed_ms", outcome.ElapsedMS,
	)

	return outcome, nil
}

func (r *WatcherResolver) fetchPrefetchData(ctx context.Context) []byte {
	payload, err := r.snippets.RemoteCall(ctx, SnippetPrefetchFirst, r.snippetTimeout)
	if err != nil {
		r.logger.Debug("pre-fetch после наблюдателя не дал результата", "error", err)
		return nil
	}

	return payload
}
