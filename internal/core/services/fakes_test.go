package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/joumichy/botorange/internal/domain"
	"github.com/joumichy/botorange/internal/ports"
)

// fakeDriver записывает последовательность действий ввода.
type fakeDriver struct {
	mutex   sync.Mutex
	actions []string
	typed   []string
}

func (d *fakeDriver) record(action string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.actions = append(d.actions, action)
}

func (d *fakeDriver) Click(x, y int) { d.record(fmt.Sprintf("click %d,%d", x, y)) }

func (d *fakeDriver) DoubleClick(x, y int) { d.record(fmt.Sprintf("doubleclick %d,%d", x, y)) }

func (d *fakeDriver) TypeText(text string) {
	d.mutex.Lock()
	d.typed = append(d.typed, text)
	d.mutex.Unlock()
	d.record("type " + text)
}

func (d *fakeDriver) TypeFast(text string) {
	d.mutex.Lock()
	d.typed = append(d.typed, text)
	d.mutex.Unlock()
	d.record("typefast")
}

func (d *fakeDriver) PressKey(key string) { d.record("press " + key) }

func (d *fakeDriver) SelectAll() { d.record("selectall") }

func (d *fakeDriver) Copy() { d.record("copy") }

func (d *fakeDriver) Paste() { d.record("paste") }

func (d *fakeDriver) OpenConsole() { d.record("console") }

func (d *fakeDriver) Settle(time.Duration) {}

func (d *fakeDriver) history() []string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	out := make([]string, len(d.actions))
	copy(out, d.actions)
	return out
}

func (d *fakeDriver) typedText() []string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	out := make([]string, len(d.typed))
	copy(out, d.typed)
	return out
}

// fakeClipboard - буфер обмена в памяти.
type fakeClipboard struct {
	mutex sync.Mutex
	value string
}

func (c *fakeClipboard) Read() (string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.value, nil
}

func (c *fakeClipboard) Write(text string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.value = text
	return nil
}

// stubWait - сценарий ответа опросчика для одного шаблона.
type stubWait struct {
	result ports.WaitResult
	after  time.Duration
}

// stubPoller отвечает по имени шаблона (для набора - по имени первого).
// Шаблон без сценария не находится до конца таймаута.
type stubPoller struct {
	results map[string]stubWait
}

func (p *stubPoller) WaitFor(ctx context.Context, tmpl domain.Template, timeout time.Duration) ports.WaitResult {
	return p.wait(ctx, tmpl.Name, timeout)
}

func (p *stubPoller) WaitForAny(ctx context.Context, tmpls []domain.Template, timeout time.Duration) ports.WaitResult {
	return p.wait(ctx, tmpls[0].Name, timeout)
}

func (p *stubPoller) wait(ctx context.Context, name string, timeout time.Duration) ports.WaitResult {
	entry, ok := p.results[name]

	delay := timeout
	if ok {
		delay = entry.after
	}

	select {
	case <-ctx.Done():
		return ports.WaitResult{Status: ports.WaitCancelled}
	case <-time.After(delay):
	}

	if !ok {
		return ports.WaitResult{Status: ports.WaitTimedOut}
	}

	return entry.result
}

// fakeSnippetChannel подменяет канал сниппетов готовыми ответами.
type fakeSnippetChannel struct {
	mutex    sync.Mutex
	runs     []string
	calls    []string
	payloads map[string][]byte
	errs     map[string]error
	delay    time.Duration
}

func (s *fakeSnippetChannel) Run(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.Lock()
	s.runs = append(s.runs, name)
	s.mutex.Unlock()

	return nil
}

func (s *fakeSnippetChannel) RemoteCall(ctx context.Context, name string, timeout time.Duration) ([]byte, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}

	s.mutex.Lock()
	s.calls = append(s.calls, name)
	s.mutex.Unlock()

	if err, ok := s.errs[name]; ok {
		return nil, err
	}

	return s.payloads[name], nil
}

func (s *fakeSnippetChannel) remoteCalls() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// fakeResolver возвращает заранее заданные исходы по номеру.
type fakeResolver struct {
	outcomes map[string]domain.SearchOutcome
}

func (r *fakeResolver) Resolve(_ context.Context, phone string) (domain.SearchOutcome, error) {
	if outcome, ok := r.outcomes[phone]; ok {
		return outcome, nil
	}

	return domain.SearchOutcome{Status: domain.StatusTimeout}, nil
}

// fakeExporter запоминает, что было записано.
type fakeExporter struct {
	mutex       sync.Mutex
	exported    []domain.ResultRow
	partialRows []domain.ResultRow
	partialPath string
}

func (e *fakeExporter) Export(rows []domain.ResultRow) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.exported = rows
	return nil
}

func (e *fakeExporter) ExportPartial(rows []domain.ResultRow) (string, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.partialRows = rows
	e.partialPath = "results_partial_test.xlsx"
	return e.partialPath, nil
}

// nopReporter молчит; cancelReporter отменяет контекст после первой строки.
type nopReporter struct{}

func (nopReporter) Progress(int, int, string) {}

func (nopReporter) RowStatus(domain.ResultRow) {}

func (nopReporter) Summary([]domain.ResultRow, string) {}

type cancelReporter struct {
	nopReporter
	cancel context.CancelFunc
	once   sync.Once
}

func (r *cancelReporter) RowStatus(domain.ResultRow) {
	r.once.Do(r.cancel)
}
