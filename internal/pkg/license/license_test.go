package license

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthorizer(t *testing.T, expectedHash string) *Authorizer {
	t.Helper()
	a := New(expectedHash, t.TempDir(), discardLogger())
	a.in = strings.NewReader("")
	a.out = io.Discard
	return a
}

func TestAuthorize(t *testing.T) {
	t.Run("без настроенного хеша проверка отключена", func(t *testing.T) {
		a := newAuthorizer(t, "")

		assert.NoError(t, a.Authorize())
	})

	t.Run("первый запуск открывает пробный период", func(t *testing.T) {
		a := newAuthorizer(t, hashPassword("secret"))

		require.NoError(t, a.Authorize())

		// Состояние записано в обе копии.
		for _, name := range []string{trialFileName, trialBackupName} {
			_, err := os.Stat(filepath.Join(a.baseDir, name))
			assert.NoError(t, err)
		}
	})

	t.Run("повторный запуск в пределах срока разрешён", func(t *testing.T) {
		a := newAuthorizer(t, hashPassword("secret"))

		require.NoError(t, a.Authorize())
		require.NoError(t, a.Authorize())
	})

	t.Run("истёкший период и неверный пароль - отказ", func(t *testing.T) {
		a := newAuthorizer(t, hashPassword("secret"))
		require.NoError(t, a.Authorize())

		// Переносимся на месяц вперёд.
		a.now = func() time.Time { return time.Now().AddDate(0, 1, 0) }
		a.in = strings.NewReader("mauvais mot de passe\n")

		require.ErrorIs(t, a.Authorize(), ErrNotAuthorized)
	})

	t.Run("истёкший период и верный пароль - разблокировка", func(t *testing.T) {
		a := newAuthorizer(t, hashPassword("secret"))
		require.NoError(t, a.Authorize())

		a.now = func() time.Time { return time.Now().AddDate(0, 1, 0) }
		a.in = strings.NewReader("secret\n")

		require.NoError(t, a.Authorize())

		// Разблокировка сохранена: новый запуск не спрашивает пароль.
		a.in = strings.NewReader("")
		require.NoError(t, a.Authorize())
	})

	t.Run("ручная правка состояния ведёт к запросу пароля", func(t *testing.T) {
		a := newAuthorizer(t, hashPassword("secret"))
		require.NoError(t, a.Authorize())

		path := filepath.Join(a.baseDir, trialFileName)
		require.NoError(t, os.WriteFile(path, []byte(`{"first_run":1,"last_run":1,"mid":"x","sig":"bad"}`), 0o644))

		a.in = strings.NewReader("mauvais\n")
		require.ErrorIs(t, a.Authorize(), ErrNotAuthorized)
	})

	t.Run("перевод часов назад не продлевает период", func(t *testing.T) {
		a := newAuthorizer(t, hashPassword("secret"))
		require.NoError(t, a.Authorize())

		a.now = func() time.Time { return time.Now().AddDate(0, 0, -10) }
		a.in = strings.NewReader("mauvais\n")

		require.ErrorIs(t, a.Authorize(), ErrNotAuthorized)
	})
}
