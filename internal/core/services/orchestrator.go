package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joumichy/botorange/internal/adapters/parser"
	"github.com/joumichy/botorange/internal/domain"
	"github.com/joumichy/botorange/internal/pkg/config"
	"github.com/joumichy/botorange/internal/ports"
)

// ProgressReporter - обратная связь оператору во время батча.
type ProgressReporter interface {
	Progress(index, total int, phone string)
	RowStatus(row domain.ResultRow)
	Summary(rows []domain.ResultRow, outputFile string)
}

// Orchestrator последовательно прогоняет номера через рабочий процесс:
// фокус поля поиска, ввод, гонка детекторов, извлечение контактов,
// накопление строк результата. Ошибка одного номера изолируется
// и не прерывает батч.
type Orchestrator struct {
	actions     *UIActions
	resolver    ports.SearchResolver
	snippets    ports.SnippetChannel
	poller      ports.ScreenPoller
	catalog     *config.Catalog
	calibration *Calibration
	accumulator *Accumulator
	exporter    ports.ResultExporter
	reporter    ProgressReporter
	logger      *slog.Logger

	outputFile      string
	detectorTimeout time.Duration
	snippetTimeout  time.Duration
	interPause      time.Duration
}

// NewOrchestrator собирает оркестратор батча.
func NewOrchestrator(
	actions *UIActions,
	resolver ports.SearchResolver,
	snippets ports.SnippetChannel,
	poller ports.ScreenPoller,
	catalog *config.Catalog,
	calibration *Calibration,
	accumulator *Accumulator,
	exporter ports.ResultExporter,
	reporter ProgressReporter,
	cfg *config.Config,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		actions:         actions,
		resolver:        resolver,
		snippets:        snippets,
		poller:          poller,
		catalog:         catalog,
		calibration:     calibration,
		accumulator:     accumulator,
		exporter:        exporter,
		reporter:        reporter,
		logger:          logger,
		outputFile:      cfg.Files.OutputFile,
		detectorTimeout: cfg.DetectorTimeout(),
		snippetTimeout:  cfg.SnippetTimeout(),
		interPause:      cfg.InterNumberPause(),
	}
}

// Run обрабатывает номера по порядку и записывает итоговый файл.
// При отмене контекста уже накопленные строки сохраняются в частичный
// файл, и возвращается причина отмены.
func (o *Orchestrator) Run(ctx context.Context, phones []string, companies map[string]domain.CompanyInfo) error {
	o.actions.CalibrateSearchRegion()

	total := len(phones)
	o.logger.Info("батч запущен",
		"run_id", o.accumulator.RunID(),
		"numbers", total,
	)

	for i, raw := range phones {
		if err := ctx.Err(); err != nil {
			return o.flushPartial(err)
		}

		phone := domain.NormalizePhone(raw)
		if phone == "" {
			o.logger.Warn("пустой номер пропущен", "raw", raw, "index", i)
			continue
		}

		o.reporter.Progress(i, total, phone)

		last := i == total-1
		rows := o.processOne(ctx, phone, companies[phone], last)

		o.accumulator.Append(rows...)
		for _, row := range rows {
			o.reporter.RowStatus(row)
		}

		if !last {
			select {
			case <-ctx.Done():
				return o.flushPartial(ctx.Err())
			case <-time.After(o.interPause):
			}
		}
	}

	rows := o.accumulator.Snapshot()
	if err := o.exporter.Export(rows); err != nil {
		return fmt.Errorf("не удалось записать результаты: %w", err)
	}

	o.reporter.Summary(rows, o.outputFile)
	o.logger.Info("батч завершён", "rows", len(rows))

	return nil
}

// flushPartial сохраняет накопленные строки в частичный файл.
func (o *Orchestrator) flushPartial(cause error) error {
	rows := o.accumulator.Snapshot()
	if len(rows) == 0 {
		return cause
	}

	path, err := o.exporter.ExportPartial(rows)
	if err != nil {
		o.logger.Error("не удалось сохранить частичные результаты", "error", err)
		return cause
	}

	o.logger.Info("частичные результаты сохранены", "file", path, "rows", len(rows))

	return cause
}

// processOne прогоняет один номер через рабочий процесс. Граница ошибок
// номера: и возвращённые ошибки, и паники превращаются в строку ERROR,
// чтобы батч продолжился со следующего номера.
func (o *Orchestrator) processOne(ctx context.Context, phone string, company domain.CompanyInfo, last bool) (rows []domain.ResultRow) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("необработанный сбой при обработке номера", "phone", phone, "panic", rec)
			rows = []domain.ResultRow{errorRow(phone, company, fmt.Sprintf("%v", rec))}
		}
	}()

	if err := o.actions.FocusSearchField(ctx); err != nil {
		o.logger.Error("поле поиска недоступно", "phone", phone, "error", err)
		return []domain.ResultRow{errorRow(phone, company, err.Error())}
	}

	o.actions.TypePhone(phone)
	o.actions.SubmitSearch()

	outcome, err := o.resolver.Resolve(ctx, phone)
	if err != nil {
		o.logger.Error("гонка детекторов завершилась ошибкой", "phone", phone, "error", err)
		return []domain.ResultRow{errorRow(phone, company, err.Error())}
	}

	switch {
	case outcome.HasResult():
		return o.extractAndClassify(ctx, phone, company, outcome)
	case outcome.Status == domain.StatusNoResult:
		o.closeSecondaryWindow(ctx, last)
		return []domain.ResultRow{domain.NewEmptyRow(phone, company, domain.RowStatusNotFound)}
	case outcome.Status == domain.StatusPrefetchReady:
		// Pre-fetch сработал, но данных нет: карточка пуста.
		o.closeSecondaryWindow(ctx, last)
		return []domain.ResultRow{domain.NewEmptyRow(phone, company, domain.RowStatusNoContactFound)}
	default:
		o.closeSecondaryWindow(ctx, last)
		return []domain.ResultRow{domain.NewEmptyRow(phone, company, domain.RowStatusTimeout)}
	}
}

// extractAndClassify извлекает контакты открытой карточки и превращает
// их в строки результата: по строке на контакт, либо NO_CONTACT_FOUND.
// Карточка с результатом остаётся открытой: окно закрывается только
// на путях без результата.
func (o *Orchestrator) extractAndClassify(ctx context.Context, phone string, company domain.CompanyInfo, outcome domain.SearchOutcome) []domain.ResultRow {
	contacts, err := o.extractContacts(ctx, outcome)
	if err != nil {
		o.logger.Error("извлечение контактов не удалось", "phone", phone, "error", err)
		return []domain.ResultRow{errorRow(phone, company, err.Error())}
	}

	if len(contacts) == 0 {
		return []domain.ResultRow{domain.NewEmptyRow(phone, company, domain.RowStatusNoContactFound)}
	}

	rows := make([]domain.ResultRow, 0, len(contacts))
	for _, contact := range contacts {
		rows = append(rows, domain.NewContactRow(phone, company, contact))
	}

	return rows
}

// extractContacts достаёт контакты в зависимости от пути к карточке.
// Pre-fetch уже несёт полезную нагрузку контактов; после клика по кнопке
// нужно открыть вкладку «Interlocuteur» и снять её содержимое сниппетом.
func (o *Orchestrator) extractContacts(ctx context.Context, outcome domain.SearchOutcome) ([]domain.ContactRecord, error) {
	if outcome.Status == domain.StatusPrefetchReady {
		return parser.ParseContacts(outcome.PrefetchData), nil
	}

	if err := o.snippets.Run(ctx, SnippetOpenInterlocutorTab); err != nil {
		return nil, err
	}

	marker := o.calibration.Apply(o.catalog.ListInterlocutors())
	wait := o.poller.WaitFor(ctx, marker, o.detectorTimeout)
	switch wait.Status {
	case ports.WaitCancelled:
		return nil, ctx.Err()
	case ports.WaitTimedOut:
		return nil, ErrPageLoadTimeout
	}

	payload, err := o.snippets.RemoteCall(ctx, SnippetListContacts, o.snippetTimeout)
	if err != nil {
		return nil, err
	}

	return parser.ParseContacts(payload), nil
}

// closeSecondaryWindow закрывает вторичное окно карточки. Окно последнего
// номера остаётся открытым, чтобы оператор видел финальное состояние.
func (o *Orchestrator) closeSecondaryWindow(ctx context.Context, last bool) {
	if last {
		return
	}

	if err := o.actions.CloseWindowViaConsole(ctx); err != nil {
		o.logger.Warn("не удалось закрыть вторичное окно", "error", err)
	}
}

// errorRow создаёт строку результата для неустранимой ошибки номера.
func errorRow(phone string, company domain.CompanyInfo, message string) domain.ResultRow {
	return domain.NewEmptyRow(phone, company, fmt.Sprintf("ERROR: %s", message))
}
