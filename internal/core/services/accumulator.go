package services

import (
	"sync"

	"github.com/google/uuid"

	"github.com/joumichy/botorange/internal/domain"
)

// Accumulator накапливает строки результата по мере обработки номеров.
// Потокобезопасен: пишет оркестратор, читает обработчик сигналов при
// аварийном сохранении.
type Accumulator struct {
	mutex sync.Mutex
	runID string
	rows  []domain.ResultRow
}

// NewAccumulator создаёт пустой аккумулятор с идентификатором запуска.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		runID: uuid.NewString(),
	}
}

// RunID возвращает идентификатор текущего запуска.
func (a *Accumulator) RunID() string {
	return a.runID
}

// Append добавляет строки в конец. Порядок добавления сохраняется.
func (a *Accumulator) Append(rows ...domain.ResultRow) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.rows = append(a.rows, rows...)
}

// Snapshot возвращает копию накопленных строк.
func (a *Accumulator) Snapshot() []domain.ResultRow {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	snapshot := make([]domain.ResultRow, len(a.rows))
	copy(snapshot, a.rows)

	return snapshot
}

// Len возвращает число накопленных строк.
func (a *Accumulator) Len() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return len(a.rows)
}
