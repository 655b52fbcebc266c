package services

import (
	"context"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joumichy/botorange/internal/domain"
	"github.com/joumichy/botorange/internal/pkg/config"
	"github.com/joumichy/botorange/internal/ports"
)

// batchEnv - собранный оркестратор с фейковыми портами.
type batchEnv struct {
	orchestrator *Orchestrator
	accumulator  *Accumulator
	exporter     *fakeExporter
	driver       *fakeDriver
	snippets     *fakeSnippetChannel
}

func newBatchEnv(t *testing.T, resolver ports.SearchResolver, snippets *fakeSnippetChannel, reporter ProgressReporter) *batchEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Timing.InterNumberPauseMS = 1
	cfg.Timing.DetectorTimeoutSeconds = 0.2
	cfg.Timing.SnippetTimeoutSeconds = 0.5

	matcher := &fakeMatcher{foundAt: 1, box: domain.Box{X: 500, Y: 300, Width: 40, Height: 20}}
	driver := &fakeDriver{}
	calibration := &Calibration{}
	catalog := config.NewCatalog(cfg)

	// Маркер загрузки страницы появляется сразу.
	poller := &stubPoller{results: map[string]stubWait{
		"list-interlocutors.png": {result: ports.WaitResult{Status: ports.WaitFound}},
	}}

	accumulator := NewAccumulator()
	exporter := &fakeExporter{}

	actions := NewUIActions(matcher, driver, &fakeClipboard{}, catalog, calibration, image.Point{}, discardLogger())

	return &batchEnv{
		orchestrator: NewOrchestrator(
			actions,
			resolver,
			snippets,
			poller,
			catalog,
			calibration,
			accumulator,
			exporter,
			reporter,
			cfg,
			discardLogger(),
		),
		accumulator: accumulator,
		exporter:    exporter,
		driver:      driver,
		snippets:    snippets,
	}
}

// countTyped считает, сколько раз драйвер набрал заданный текст.
func countTyped(driver *fakeDriver, text string) int {
	count := 0
	for _, typed := range driver.typedText() {
		if typed == text {
			count++
		}
	}
	return count
}

func TestOrchestratorRun(t *testing.T) {
	companies := map[string]domain.CompanyInfo{
		"0612345678": {Company: "Durand SARL", Siret: "12345678900011"},
		"0755555555": {Company: "Martin SAS", Siret: "98765432100022"},
	}

	t.Run("смешанный батч со всеми исходами", func(t *testing.T) {
		resolver := &fakeResolver{outcomes: map[string]domain.SearchOutcome{
			"0612345678": {Status: domain.StatusInterlocutorFound},
			"0755555555": {Status: domain.StatusNoResult},
			"0766666666": {Status: domain.StatusTimeout},
		}}
		snippets := &fakeSnippetChannel{payloads: map[string][]byte{
			SnippetListContacts: []byte(`[
				{"name":"Alice Durand","mobile":"06 11 22 33 44","email":"Alice@Durand.fr","category":"Ciblé"},
				{"firstName":"Paul","lastName":"Martin","fixe":"01 22 33 44 55"}
			]`),
		}}

		env := newBatchEnv(t, resolver, snippets, nopReporter{})

		phones := []string{"+33 6 12 34 56 78", "0755555555", "0766666666"}
		require.NoError(t, env.orchestrator.Run(context.Background(), phones, companies))

		rows := env.exporter.exported
		require.Len(t, rows, 4)

		// Два контакта первого номера - две строки FOUND.
		assert.Equal(t, "0612345678", rows[0].PhoneSearched)
		assert.Equal(t, "Durand SARL", rows[0].Company)
		assert.Equal(t, "Alice Durand", rows[0].Name)
		assert.Equal(t, "0611223344", rows[0].Mobile)
		assert.Equal(t, "alice@durand.fr", rows[0].Email)
		assert.Equal(t, "Ciblé", rows[0].Category)
		assert.Equal(t, domain.RowStatusFound, rows[0].Status)

		assert.Equal(t, "Paul Martin", rows[1].Name)
		assert.Equal(t, "0122334455", rows[1].Fix)

		// Номер без результата: контактные поля пустые, компания заполнена.
		assert.Equal(t, domain.RowStatusNotFound, rows[2].Status)
		assert.Equal(t, "Martin SAS", rows[2].Company)
		assert.Empty(t, rows[2].Name)

		assert.Equal(t, domain.RowStatusTimeout, rows[3].Status)
		assert.Empty(t, rows[3].Company)

		// Окно закрыто один раз: после второго номера без результата.
		// Карточка первого номера с результатом остаётся открытой,
		// таймаут последнего номера окно тоже не трогает.
		assert.Equal(t, 1, countTyped(env.driver, "window.close()"))
	})

	t.Run("окно закрывается на путях без результата, кроме последнего номера", func(t *testing.T) {
		resolver := &fakeResolver{outcomes: map[string]domain.SearchOutcome{
			"0612345678": {Status: domain.StatusNoResult},
			"0755555555": {Status: domain.StatusTimeout},
			"0766666666": {Status: domain.StatusNoResult},
		}}

		env := newBatchEnv(t, resolver, &fakeSnippetChannel{}, nopReporter{})

		phones := []string{"0612345678", "0755555555", "0766666666"}
		require.NoError(t, env.orchestrator.Run(context.Background(), phones, companies))

		// NO_RESULT и TIMEOUT первых двух номеров закрывают окно,
		// последний номер оставляет его открытым для оператора.
		assert.Equal(t, 2, countTyped(env.driver, "window.close()"))
	})

	t.Run("pre-fetch несёт контакты без дополнительных сниппетов", func(t *testing.T) {
		resolver := &fakeResolver{outcomes: map[string]domain.SearchOutcome{
			"0612345678": {
				Status:       domain.StatusPrefetchReady,
				PrefetchData: []byte(`[{"name":"Alice Durand"}]`),
			},
		}}
		snippets := &fakeSnippetChannel{}

		env := newBatchEnv(t, resolver, snippets, nopReporter{})

		require.NoError(t, env.orchestrator.Run(context.Background(), []string{"0612345678"}, companies))

		rows := env.exporter.exported
		require.Len(t, rows, 1)
		assert.Equal(t, domain.RowStatusFound, rows[0].Status)
		assert.Equal(t, "Alice Durand", rows[0].Name)
		assert.Empty(t, snippets.remoteCalls())
	})

	t.Run("pre-fetch без данных - NO_CONTACT_FOUND", func(t *testing.T) {
		resolver := &fakeResolver{outcomes: map[string]domain.SearchOutcome{
			"0612345678": {Status: domain.StatusPrefetchReady},
		}}

		env := newBatchEnv(t, resolver, &fakeSnippetChannel{}, nopReporter{})

		require.NoError(t, env.orchestrator.Run(context.Background(), []string{"0612345678"}, companies))

		rows := env.exporter.exported
		require.Len(t, rows, 1)
		assert.Equal(t, domain.RowStatusNoContactFound, rows[0].Status)
	})

	t.Run("пустая страница контактов - NO_CONTACT_FOUND", func(t *testing.T) {
		resolver := &fakeResolver{outcomes: map[string]domain.SearchOutcome{
			"0612345678": {Status: domain.StatusInterlocutorFound},
		}}
		snippets := &fakeSnippetChannel{payloads: map[string][]byte{
			SnippetListContacts: []byte("[]"),
		}}

		env := newBatchEnv(t, resolver, snippets, nopReporter{})

		require.NoError(t, env.orchestrator.Run(context.Background(), []string{"0612345678"}, companies))

		rows := env.exporter.exported
		require.Len(t, rows, 1)
		assert.Equal(t, domain.RowStatusNoContactFound, rows[0].Status)
	})

	t.Run("ошибка номера изолируется строкой ERROR", func(t *testing.T) {
		resolver := &fakeResolver{outcomes: map[string]domain.SearchOutcome{
			"0612345678": {Status: domain.StatusInterlocutorFound},
		}}
		snippets := &fakeSnippetChannel{errs: map[string]error{
			SnippetListContacts: ErrSnippetTimeout,
		}}

		env := newBatchEnv(t, resolver, snippets, nopReporter{})

		phones := []string{"0612345678", "0755555555"}
		require.NoError(t, env.orchestrator.Run(context.Background(), phones, companies))

		rows := env.exporter.exported
		require.Len(t, rows, 2)
		assert.True(t, strings.HasPrefix(rows[0].Status, "ERROR:"))
		// Батч продолжился после ошибки.
		assert.Equal(t, "0755555555", rows[1].PhoneSearched)
	})

	t.Run("некорректные номера пропускаются", func(t *testing.T) {
		resolver := &fakeResolver{outcomes: map[string]domain.SearchOutcome{
			"0612345678": {Status: domain.StatusNoResult},
		}}

		env := newBatchEnv(t, resolver, &fakeSnippetChannel{}, nopReporter{})

		phones := []string{"123", "", "+33 6 12 34 56 78"}
		require.NoError(t, env.orchestrator.Run(context.Background(), phones, companies))

		rows := env.exporter.exported
		require.Len(t, rows, 1)
		assert.Equal(t, "0612345678", rows[0].PhoneSearched)
	})

	t.Run("отмена сохраняет частичные результаты", func(t *testing.T) {
		resolver := &fakeResolver{outcomes: map[string]domain.SearchOutcome{
			"0612345678": {Status: domain.StatusNoResult},
			"0755555555": {Status: domain.StatusNoResult},
			"0766666666": {Status: domain.StatusNoResult},
		}}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		env := newBatchEnv(t, resolver, &fakeSnippetChannel{}, &cancelReporter{cancel: cancel})

		phones := []string{"0612345678", "0755555555", "0766666666"}
		err := env.orchestrator.Run(ctx, phones, companies)

		require.ErrorIs(t, err, context.Canceled)

		// Итоговый файл не записан, частичный - записан с первой строкой.
		assert.Nil(t, env.exporter.exported)
		require.Len(t, env.exporter.partialRows, 1)
		assert.Equal(t, "0612345678", env.exporter.partialRows[0].PhoneSearched)
	})

	t.Run("отмена замечается не позже следующего номера", func(t *testing.T) {
		resolver := &fakeResolver{}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		env := newBatchEnv(t, resolver, &fakeSnippetChannel{}, nopReporter{})

		started := time.Now()
		err := env.orchestrator.Run(ctx, []string{"0612345678", "0755555555"}, companies)

		require.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(started), time.Second)
		assert.Empty(t, env.exporter.partialRows)
	})
}
