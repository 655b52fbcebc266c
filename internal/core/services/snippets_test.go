package services

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joumichy/botorange/internal/domain"
	"github.com/joumichy/botorange/internal/ports"
)

// scriptedClipboard отдаёт на чтение заранее заданное значение,
// игнорируя очистку.
type scriptedClipboard struct {
	readValue string
	writes    []string
}

func (c *scriptedClipboard) Read() (string, error) {
	return c.readValue, nil
}

func (c *scriptedClipboard) Write(text string) error {
	c.writes = append(c.writes, text)
	return nil
}

func writeSnippet(t *testing.T, dir, name, code string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(code), 0o644))
}

func TestBase64Wrapper(t *testing.T) {
	code := "const a = 1;\nconst b = 2;\nconsole.log(a + b);"

	wrapped := base64Wrapper(code)

	t.Run("обёртка занимает одну строку", func(t *testing.T) {
		assert.NotContains(t, wrapped, "\n")
	})

	t.Run("исходный текст восстанавливается из base64", func(t *testing.T) {
		from := strings.Index(wrapped, "atob('")
		require.GreaterOrEqual(t, from, 0)
		rest := wrapped[from+len("atob('"):]
		to := strings.Index(rest, "'")
		require.Greater(t, to, 0)

		decoded, err := base64.StdEncoding.DecodeString(rest[:to])
		require.NoError(t, err)
		assert.Equal(t, code, string(decoded))
	})
}

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
		want []string
	}{
		{
			name: "короче блока",
			text: "abc",
			size: 10,
			want: []string{"abc"},
		},
		{
			name: "ровно кратно блоку",
			text: "abcdef",
			size: 3,
			want: []string{"abc", "def"},
		},
		{
			name: "с остатком",
			text: "abcdefg",
			size: 3,
			want: []string{"abc", "def", "g"},
		},
		{
			name: "пустая строка",
			text: "",
			size: 3,
			want: []string{""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitChunks(tt.text, tt.size))
		})
	}
}

func TestSnippetServiceRun(t *testing.T) {
	dir := t.TempDir()
	code := "document.title = 'hello';\nconsole.log(1);"
	writeSnippet(t, dir, "hello.js", code)

	driver := &fakeDriver{}
	service := NewSnippetService(
		SnippetOptions{ScriptsDir: dir, ChunkSize: 10},
		driver,
		&fakeClipboard{},
		&stubPoller{},
		discardLogger(),
	)

	require.NoError(t, service.Run(context.Background(), "hello.js"))

	t.Run("полезная нагрузка набрана блоками целиком", func(t *testing.T) {
		assert.Equal(t, base64Wrapper(code), strings.Join(driver.typedText(), ""))
	})

	t.Run("консоль открыта до набора, Enter нажат после", func(t *testing.T) {
		history := driver.history()
		require.NotEmpty(t, history)
		assert.Equal(t, "console", history[0])
		assert.Equal(t, "press enter", history[len(history)-1])
	})

	t.Run("неизвестный сниппет - ошибка", func(t *testing.T) {
		assert.Error(t, service.Run(context.Background(), "missing.js"))
	})
}

func TestSnippetServiceRemoteCall(t *testing.T) {
	dir := t.TempDir()
	writeSnippet(t, dir, "report.js", "copy(JSON.stringify(result));")

	markers := []domain.Template{{Name: "result-ok"}}

	t.Run("маркер появился - результат снят из буфера", func(t *testing.T) {
		clipboard := &scriptedClipboard{readValue: "  [{\"name\":\"Durand\"}]  \n"}
		poller := &stubPoller{results: map[string]stubWait{
			"result-ok": {result: ports.WaitResult{Status: ports.WaitFound}},
		}}

		service := NewSnippetService(
			SnippetOptions{ScriptsDir: dir, ResultMarkers: markers},
			&fakeDriver{},
			clipboard,
			poller,
			discardLogger(),
		)

		payload, err := service.RemoteCall(context.Background(), "report.js", time.Second)

		require.NoError(t, err)
		assert.Equal(t, `[{"name":"Durand"}]`, string(payload))
		// Буфер очищается до запуска, чтобы не принять старый результат.
		require.NotEmpty(t, clipboard.writes)
		assert.Equal(t, "", clipboard.writes[0])
	})

	t.Run("маркер не появился - таймаут сниппета", func(t *testing.T) {
		service := NewSnippetService(
			SnippetOptions{ScriptsDir: dir, ResultMarkers: markers},
			&fakeDriver{},
			&scriptedClipboard{},
			&stubPoller{},
			discardLogger(),
		)

		_, err := service.RemoteCall(context.Background(), "report.js", 30*time.Millisecond)

		require.ErrorIs(t, err, ErrSnippetTimeout)
	})
}
