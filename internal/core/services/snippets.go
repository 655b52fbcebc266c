package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joumichy/botorange/internal/domain"
	"github.com/joumichy/botorange/internal/ports"
)

// Имена файлов сниппетов в каталоге scripts.
const (
	// SnippetOpenInterlocutorTab открывает вкладку «Interlocuteur»
	// в карточке найденной компании.
	SnippetOpenInterlocutorTab = "open_interlocuteur_tab.js"
	// SnippetListContacts собирает контакты со страницы «Interlocuteur»
	// и кладёт их JSON в буфер обмена.
	SnippetListContacts = "dom_interlocuteurs_snippet.js"
	// SnippetPrefetchFirst открывает первый результат поиска прямо из DOM
	// и возвращает его контакты, не дожидаясь кнопки.
	SnippetPrefetchFirst = "dom_get_first_interlocuteurs_snippet.js"
	// SnippetSearchWatcher - наблюдатель исхода поиска на стороне страницы.
	SnippetSearchWatcher = "parallel_search_watcher.js"
)

// SnippetOptions настраивает канал выполнения сниппетов.
type SnippetOptions struct {
	// ScriptsDir - каталог с файлами сниппетов.
	ScriptsDir string
	// ChunkSize - символов на блок быстрого набора.
	ChunkSize int
	// ChunkDelay - задержка между блоками.
	ChunkDelay time.Duration
	// EditorCommand - команда внешнего редактора; непустое значение
	// включает режим «открыть файл, выделить, скопировать, вставить»
	// вместо посимвольного набора.
	EditorCommand string
	// EditorKillCommand - команда закрытия редактора после копирования.
	EditorKillCommand string
	// ResultMarkers - визуальные маркеры появления результата сниппета.
	ResultMarkers []domain.Template
}

// SnippetService реализует ports.SnippetChannel: вводит JS-сниппеты
// в консоль DevTools и снимает их результат через буфер обмена.
// Единственное подтверждение выполнения - появление визуального маркера.
type SnippetService struct {
	opts      SnippetOptions
	driver    ports.InputDriver
	clipboard ports.Clipboard
	poller    ports.ScreenPoller
	logger    *slog.Logger

	mutex sync.Mutex
	cache map[string]string
}

// NewSnippetService создаёт канал выполнения сниппетов.
func NewSnippetService(
	opts SnippetOptions,
	driver ports.InputDriver,
	clipboard ports.Clipboard,
	poller ports.ScreenPoller,
	logger *slog.Logger,
) *SnippetService {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 600
	}

	return &SnippetService{
		opts:      opts,
		driver:    driver,
		clipboard: clipboard,
		poller:    poller,
		logger:    logger,
		cache:     make(map[string]string),
	}
}

// load читает сниппет по имени файла. Содержимое кешируется:
// файлы сниппетов не меняются во время работы.
func (s *SnippetService) load(name string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if code, ok := s.cache[name]; ok {
		return code, nil
	}

	data, err := os.ReadFile(filepath.Join(s.opts.ScriptsDir, name))
	if err != nil {
		return "", fmt.Errorf("не удалось прочитать сниппет %s: %w", name, err)
	}

	code := string(data)
	s.cache[name] = code

	return code, nil
}

// base64Wrapper сворачивает многострочный сниппет в одну строку:
// консоль исполняет каждую введённую строку отдельно, поэтому исходный
// текст кодируется и разворачивается уже на стороне страницы.
func base64Wrapper(code string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(code))
	return fmt.Sprintf(
		"new Function(new TextDecoder().decode(Uint8Array.from(atob('%s'),c=>c.charCodeAt(0))))()",
		encoded,
	)
}

// splitChunks режет строку на блоки не длиннее size символов.
func splitChunks(text string, size int) []string {
	if size <= 0 || len(text) <= size {
		return []string{text}
	}

	chunks := make([]string, 0, len(text)/size+1)
	for len(text) > size {
		chunks = append(chunks, text[:size])
		text = text[size:]
	}
	chunks = append(chunks, text)

	return chunks
}

// typeChunked печатает полезную нагрузку блоками через пару горутин
// производитель-потребитель, выдерживая паузу между блоками:
// виртуальные машины теряют символы при непрерывном потоке ввода.
func (s *SnippetService) typeChunked(ctx context.Context, payload string) error {
	chunks := make(chan string)

	go func() {
		defer close(chunks)
		for _, chunk := range splitChunks(payload, s.opts.ChunkSize) {
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	for chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.driver.TypeFast(chunk)
		time.Sleep(s.opts.ChunkDelay)
	}

	return ctx.Err()
}

// injectViaEditor вводит сниппет через внешний редактор: открывает файл,
// копирует содержимое целиком и вставляет его в консоль одним действием.
// Надёжнее набора на машинах, где синтетический ввод теряет символы.
func (s *SnippetService) injectViaEditor(ctx context.Context, name string) error {
	path := filepath.Join(s.opts.ScriptsDir, name)

	parts := strings.Fields(s.opts.EditorCommand)
	cmd := exec.CommandContext(ctx, parts[0], append(parts[1:], path)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("не удалось запустить редактор: %w", err)
	}

	s.driver.Settle(2 * time.Second)
	s.driver.SelectAll()
	s.driver.Copy()

	if s.opts.EditorKillCommand != "" {
		killParts := strings.Fields(s.opts.EditorKillCommand)
		if err := exec.CommandContext(ctx, killParts[0], killParts[1:]...).Run(); err != nil {
			s.logger.Warn("не удалось закрыть редактор", "error", err)
		}
	}

	s.driver.OpenConsole()
	s.clearConsoleLine()
	s.driver.Paste()

	return nil
}

// clearConsoleLine очищает строку ввода консоли от остатков
// предыдущего сниппета.
func (s *SnippetService) clearConsoleLine() {
	s.driver.SelectAll()
	s.driver.PressKey("backspace")
}

// Run вводит сниппет в консоль DevTools и запускает его клавишей Enter.
func (s *SnippetService) Run(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Debug("запуск сниппета", "snippet", name)

	if s.opts.EditorCommand != "" {
		if err := s.injectViaEditor(ctx, name); err != nil {
			return err
		}
	} else {
		code, err := s.load(name)
		if err != nil {
			return err
		}

		s.driver.OpenConsole()
		s.clearConsoleLine()

		if err := s.typeChunked(ctx, base64Wrapper(code)); err != nil {
			return err
		}
	}

	s.driver.PressKey("enter")

	return nil
}

// RemoteCall запускает сниппет и ждёт визуальный маркер его результата.
// После появления маркера содержимое результата выделяется, копируется
// и читается из буфера обмена. Протокол без подтверждения: пустая
// полезная нагрузка - валидный ответ «ничего не найдено».
func (s *SnippetService) RemoteCall(ctx context.Context, name string, timeout time.Duration) ([]byte, error) {
	// Буфер очищается заранее, чтобы не принять остаток прошлого
	// вызова за свежий результат.
	if err := s.clipboard.Write(""); err != nil {
		s.logger.Warn("не удалось очистить буфер обмена", "error", err)
	}

	if err := s.Run(ctx, name); err != nil {
		return nil, err
	}

	result := s.poller.WaitForAny(ctx, s.opts.ResultMarkers, timeout)
	switch result.Status {
	case ports.WaitCancelled:
		return nil, ctx.Err()
	case ports.WaitTimedOut:
		return nil, fmt.Errorf("%w: %s", ErrSnippetTimeout, name)
	}

	s.driver.SelectAll()
	s.driver.Copy()
	// Enter закрывает диалог результата на странице.
	s.driver.PressKey("enter")

	payload, err := s.clipboard.Read()
	if err != nil {
		return nil, fmt.Errorf("не удалось снять результат сниппета %s: %w", name, err)
	}

	return []byte(strings.TrimSpace(payload)), nil
}
