package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joumichy/botorange/internal/domain"
	"github.com/joumichy/botorange/internal/pkg/config"
	"github.com/joumichy/botorange/internal/ports"
)

// LocalRaceResolver определяет исход поиска гонкой трёх параллельных
// детекторов: кнопка «Interlocuteur», сообщение «0 résultat» и pre-fetch
// через DOM. Первый авторитетный исход кооперативно останавливает
// остальных; классификация выполняется строго после присоединения
// всех горутин.
type LocalRaceResolver struct {
	poller      ports.ScreenPoller
	driver      ports.InputDriver
	snippets    ports.SnippetChannel
	catalog     *config.Catalog
	calibration *Calibration
	logger      *slog.Logger

	outerTimeout    time.Duration
	detectorTimeout time.Duration
	prefetchGrace   time.Duration
	snippetTimeout  time.Duration
	pollInterval    time.Duration
}

// NewLocalRaceResolver создаёт резолвер локальной гонки.
func NewLocalRaceResolver(
	poller ports.ScreenPoller,
	driver ports.InputDriver,
	snippets ports.SnippetChannel,
	catalog *config.Catalog,
	calibration *Calibration,
	cfg *config.Config,
	logger *slog.Logger,
) *LocalRaceResolver {
	return &LocalRaceResolver{
		poller:          poller,
		driver:          driver,
		snippets:        snippets,
		catalog:         catalog,
		calibration:     calibration,
		logger:          logger,
		outerTimeout:    cfg.OuterTimeout(),
		detectorTimeout: cfg.DetectorTimeout(),
		prefetchGrace:   cfg.PrefetchGrace(),
		snippetTimeout:  cfg.SnippetTimeout(),
		pollInterval:    cfg.PollInterval(),
	}
}

// raceState - общие флаги гонки. Каждый детектор пишет только свои поля
// под мьютексом; чтение выполняется после присоединения всех горутин.
type raceState struct {
	mutex           sync.Mutex
	interlocutorHit bool
	noResultHit     bool
	prefetchFired   bool
	prefetchData    []byte
}

// Resolve запускает гонку детекторов для уже отправленного запроса
// и возвращает ровно один терминальный исход.
func (r *LocalRaceResolver) Resolve(ctx context.Context, phone string) (domain.SearchOutcome, error) {
	started := time.Now()

	raceCtx, cancelRace := context.WithCancel(ctx)
	defer cancelRace()

	state := &raceState{}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		r.watchInterlocutorButton(raceCtx, cancelRace, state)
	}()

	go func() {
		defer wg.Done()
		r.watchNoResult(raceCtx, cancelRace, state)
	}()

	go func() {
		defer wg.Done()
		r.prefetchFirstResult(ctx, raceCtx, cancelRace, state)
	}()

	joined := make(chan struct{})
	go func() {
		wg.Wait()
		close(joined)
	}()

	// Внешний таймаут - предохранитель от зависшего детектора.
	select {
	case <-joined:
	case <-time.After(r.outerTimeout):
		r.logger.Warn("внешний таймаут гонки детекторов", "phone", phone)
		cancelRace()
		<-joined
	}

	outcome := r.classify(state)
	outcome.ElapsedMS = time.Since(started).Milliseconds()

	r.logger.Info("исход поиска определён",
		"phone", phone,
		"status", string(outcome.Status),
		"elapsed_ms", outcome.ElapsedMS,
	)

	return outcome, nil
}

// watchInterlocutorButton ждёт любой из визуальных вариантов кнопки
// «Interlocuteur» и кликает по её центру.
func (r *LocalRaceResolver) watchInterlocutorButton(ctx context.Context, cancelRace context.CancelFunc, state *raceState) {
	buttons := r.calibration.ApplyAll(r.catalog.InterlocutorButtons())

	result := r.poller.WaitForAny(ctx, buttons, r.detectorTimeout)
	if result.Status != ports.WaitFound {
		return
	}

	x, y := result.Detection.Box.Center()
	r.driver.Click(x, y)

	r.logger.Debug("кнопка Interlocuteur найдена",
		"variant", result.Detection.VariantIndex,
		"score", result.Detection.Score,
	)

	state.mutex.Lock()
	state.interlocutorHit = true
	state.mutex.Unlock()

	cancelRace()
}

// watchNoResult ждёт сообщение «0 résultat».
func (r *LocalRaceResolver) watchNoResult(ctx context.Context, cancelRace context.CancelFunc, state *raceState) {
	result := r.poller.WaitFor(ctx, r.calibration.Apply(r.catalog.NoResult()), r.detectorTimeout)
	if result.Status != ports.WaitFound {
		return
	}

	state.mutex.Lock()
	state.noResultHit = true
	state.mutex.Unlock()

	cancelRace()
}

// prefetchFirstResult выжидает льготный период, давая визуальным
// детекторам шанс победить, затем пробует открыть первый результат
// прямо из DOM. Начатый вызов сниппета не прерывается отменой гонки:
// синтетический ввод нельзя безопасно бросить на середине.
func (r *LocalRaceResolver) prefetchFirstResult(parent, ctx context.Context, cancelRace context.CancelFunc, state *raceState) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(r.prefetchGrace):
	}

	payload, err := r.snippets.RemoteCall(parent, SnippetPrefetchFirst, r.snippetTimeout)
	if err != nil {
		r.logger.Debug("pre-fetch не дал результата", "error", err)
		return
	}

	state.mutex.Lock()
	state.prefetchFired = true
	state.prefetchData = payload
	state.mutex.Unlock()

	// Только непустая нагрузка авторитетна и останавливает остальных.
	if len(payload) > 0 {
		cancelRace()
	}
}

// classify сводит флаги гонки к единственному исходу. Функция тотальна:
// любая комбинация флагов даёт ровно один статус.
func (r *LocalRaceResolver) classify(state *raceState) domain.SearchOutcome {
	state.mutex.Lock()
	defer state.mutex.Unlock()

	switch {
	case state.interlocutorHit:
		return domain.SearchOutcome{Status: domain.StatusInterlocutorFound}
	case state.prefetchFired && len(state.prefetchData) > 0:
		return domain.SearchOutcome{Status: domain.StatusPrefetchReady, PrefetchData: state.prefetchData}
	case state.noResultHit:
		return domain.SearchOutcome{Status: domain.StatusNoResult}
	default:
		return domain.SearchOutcome{Status: domain.StatusTimeout}
	}
}
