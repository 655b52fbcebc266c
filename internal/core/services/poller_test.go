package services

import (
	"context"
	"image"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joumichy/botorange/internal/domain"
	"github.com/joumichy/botorange/internal/ports"
)

// fakeMatcher отдаёт заранее заданную последовательность результатов.
type fakeMatcher struct {
	calls   atomic.Int64
	foundAt int64
	box     domain.Box
}

func (m *fakeMatcher) Locate(domain.Template) domain.DetectionResult {
	call := m.calls.Add(1)
	if m.foundAt > 0 && call >= m.foundAt {
		return domain.DetectionResult{Found: true, Box: m.box, Score: 0.95, VariantIndex: -1}
	}

	return domain.DetectionResult{VariantIndex: -1}
}

func (m *fakeMatcher) LocateAny(templates []domain.Template) domain.DetectionResult {
	result := m.Locate(templates[0])
	if result.Found {
		result.VariantIndex = 0
	}

	return result
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPollerWaitFor(t *testing.T) {
	tmpl := domain.Template{Name: "кнопка", Confidence: 0.8}

	t.Run("шаблон появляется на третьем цикле", func(t *testing.T) {
		matcher := &fakeMatcher{foundAt: 3, box: domain.Box{X: 10, Y: 20, Width: 30, Height: 14}}
		poller := NewPoller(matcher, 10*time.Millisecond, discardLogger())

		result := poller.WaitFor(context.Background(), tmpl, time.Second)

		require.Equal(t, ports.WaitFound, result.Status)
		assert.Equal(t, domain.Box{X: 10, Y: 20, Width: 30, Height: 14}, result.Detection.Box)
	})

	t.Run("таймаут не раньше срока и не позже срока плюс интервал", func(t *testing.T) {
		matcher := &fakeMatcher{}

		interval := 25 * time.Millisecond
		timeout := 150 * time.Millisecond
		poller := NewPoller(matcher, interval, discardLogger())

		started := time.Now()
		result := poller.WaitFor(context.Background(), tmpl, timeout)
		elapsed := time.Since(started)

		require.Equal(t, ports.WaitTimedOut, result.Status)
		assert.GreaterOrEqual(t, elapsed, timeout)
		assert.Less(t, elapsed, timeout+2*interval)
	})

	t.Run("отмена контекста замечается в пределах одного интервала", func(t *testing.T) {
		matcher := &fakeMatcher{}

		interval := 20 * time.Millisecond
		poller := NewPoller(matcher, interval, discardLogger())

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(30 * time.Millisecond)
			cancel()
		}()

		started := time.Now()
		result := poller.WaitFor(ctx, tmpl, 5*time.Second)
		elapsed := time.Since(started)

		require.Equal(t, ports.WaitCancelled, result.Status)
		assert.Less(t, elapsed, 30*time.Millisecond+2*interval)
	})

	t.Run("набор шаблонов возвращает индекс варианта", func(t *testing.T) {
		matcher := &fakeMatcher{foundAt: 1}
		poller := NewPoller(matcher, 10*time.Millisecond, discardLogger())

		templates := []domain.Template{{Name: "вариант-0"}, {Name: "вариант-1"}}
		result := poller.WaitForAny(context.Background(), templates, time.Second)

		require.Equal(t, ports.WaitFound, result.Status)
		assert.Equal(t, 0, result.Detection.VariantIndex)
	})
}

func TestCalibration(t *testing.T) {
	t.Run("до калибровки шаблон не меняется", func(t *testing.T) {
		var calibration Calibration

		tmpl := calibration.Apply(domain.Template{Name: "loop"})

		assert.True(t, tmpl.Region.Empty())
	})

	t.Run("после калибровки область подставляется", func(t *testing.T) {
		var calibration Calibration
		calibration.Set(image.Rect(0, 100, 1920, 600))

		tmpl := calibration.Apply(domain.Template{Name: "loop"})

		assert.Equal(t, image.Rect(0, 100, 1920, 600), tmpl.Region)
	})

	t.Run("собственная область шаблона имеет приоритет", func(t *testing.T) {
		var calibration Calibration
		calibration.Set(image.Rect(0, 100, 1920, 600))

		own := image.Rect(10, 10, 50, 50)
		tmpl := calibration.Apply(domain.Template{Name: "loop", Region: own})

		assert.Equal(t, own, tmpl.Region)
	})
}

func TestAccumulator(t *testing.T) {
	acc := NewAccumulator()

	require.NotEmpty(t, acc.RunID())
	assert.Zero(t, acc.Len())

	acc.Append(domain.ResultRow{PhoneSearched: "0612345678", Status: domain.RowStatusFound})
	acc.Append(
		domain.ResultRow{PhoneSearched: "0798765432", Status: domain.RowStatusNotFound},
		domain.ResultRow{PhoneSearched: "0711111111", Status: domain.RowStatusTimeout},
	)

	snapshot := acc.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "0612345678", snapshot[0].PhoneSearched)
	assert.Equal(t, "0711111111", snapshot[2].PhoneSearched)

	// Снимок - копия: изменение снимка не трогает аккумулятор.
	snapshot[0].PhoneSearched = "испорчено"
	assert.Equal(t, "0612345678", acc.Snapshot()[0].PhoneSearched)
}
