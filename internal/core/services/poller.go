package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/joumichy/botorange/internal/domain"
	"github.com/joumichy/botorange/internal/ports"
)

// errNotYet - служебная ошибка цикла опроса: шаблон ещё не появился.
var errNotYet = errors.New("шаблон пока не найден")

// Poller периодически опрашивает экран через TemplateMatcher, пока шаблон
// не появится, не истечёт таймаут или не будет отменён контекст.
type Poller struct {
	matcher  ports.TemplateMatcher
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller создаёт опросчик экрана с заданным интервалом между циклами.
func NewPoller(matcher ports.TemplateMatcher, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	return &Poller{
		matcher:  matcher,
		interval: interval,
		logger:   logger,
	}
}

// WaitFor ждёт появления одного шаблона.
func (p *Poller) WaitFor(ctx context.Context, tmpl domain.Template, timeout time.Duration) ports.WaitResult {
	return p.wait(ctx, timeout, func() domain.DetectionResult {
		return p.matcher.Locate(tmpl)
	})
}

// WaitForAny ждёт появления любого шаблона из набора.
func (p *Poller) WaitForAny(ctx context.Context, templates []domain.Template, timeout time.Duration) ports.WaitResult {
	return p.wait(ctx, timeout, func() domain.DetectionResult {
		return p.matcher.LocateAny(templates)
	})
}

func (p *Poller) wait(ctx context.Context, timeout time.Duration, locate func() domain.DetectionResult) ports.WaitResult {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var detection domain.DetectionResult

	operation := func() error {
		// Отмену проверяем в начале каждого цикла, до скриншота.
		if err := waitCtx.Err(); err != nil {
			return backoff.Permanent(err)
		}

		result := locate()
		if !result.Found {
			return errNotYet
		}

		detection = result

		return nil
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(p.interval), waitCtx)

	if err := backoff.Retry(operation, policy); err != nil {
		// Отмена родительского контекста отличается от истечения таймаута.
		if ctx.Err() != nil {
			return ports.WaitResult{Status: ports.WaitCancelled}
		}

		return ports.WaitResult{Status: ports.WaitTimedOut}
	}

	p.logger.Debug("шаблон найден",
		"score", detection.Score,
		"x", detection.Box.X,
		"y", detection.Box.Y,
	)

	return ports.WaitResult{Status: ports.WaitFound, Detection: detection}
}
