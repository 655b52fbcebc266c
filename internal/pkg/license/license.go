// Package license реализует проверку разрешения на запуск: ограниченный
// по времени пробный период с подписанными файлами состояния и
// разблокировку паролем, хеш которого задаётся переменной окружения.
package license

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotAuthorized - запуск не разрешён: пробный период истёк,
// а пароль разблокировки не подошёл.
var ErrNotAuthorized = errors.New("licence non valide - periode d'essai terminee")

const (
	unlockFileName   = "license.key"
	trialFileName    = "trial.json"
	trialBackupName  = "trial.bak.json"
	defaultTrialDays = 14
	// clockSkewGrace - допуск на рассинхронизацию часов при проверке
	// перевода времени назад.
	clockSkewGrace = time.Hour
)

// trialState - подписанное состояние пробного периода. Файл хранится
// в двух экземплярах: расхождение копий означает ручную правку.
type trialState struct {
	FirstRun int64  `json:"first_run"`
	LastRun  int64  `json:"last_run"`
	Mid      string `json:"mid"`
	Sig      string `json:"sig"`
}

// Authorizer проверяет лицензию при старте, до начала рабочего процесса.
// Пустой ожидаемый хеш полностью отключает проверку.
type Authorizer struct {
	expectedHash string
	baseDir      string
	trialDays    int
	in           io.Reader
	out          io.Writer
	logger       *slog.Logger
	now          func() time.Time
}

// New создаёт проверку лицензии над каталогом состояния baseDir.
func New(expectedHash, baseDir string, logger *slog.Logger) *Authorizer {
	return &Authorizer{
		expectedHash: strings.TrimSpace(expectedHash),
		baseDir:      baseDir,
		trialDays:    defaultTrialDays,
		in:           os.Stdin,
		out:          os.Stdout,
		logger:       logger,
		now:          time.Now,
	}
}

func hashPassword(pw string) string {
	sum := sha256.Sum256([]byte(pw))
	return hex.EncodeToString(sum[:])
}

// machineID привязывает состояние пробного периода к машине.
func machineID() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown-host"
	}
	return host
}

func signTrial(first, last int64, mid string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%d:%s:crm-default-key", first, last, mid)))
	return hex.EncodeToString(sum[:])
}

// Authorize возвращает nil, если запуск разрешён: проверка отключена,
// лицензия разблокирована или пробный период ещё идёт.
func (a *Authorizer) Authorize() error {
	if a.expectedHash == "" {
		return nil
	}

	if a.isUnlocked() {
		a.logger.Debug("лицензия разблокирована")
		return nil
	}

	ok, err := a.trialActive()
	if err != nil {
		a.logger.Warn("состояние пробного периода повреждено", "error", err)
		return a.promptUnlock()
	}
	if ok {
		return nil
	}

	return a.promptUnlock()
}

func (a *Authorizer) isUnlocked() bool {
	data, err := os.ReadFile(filepath.Join(a.baseDir, unlockFileName))
	if err != nil {
		return false
	}

	return strings.TrimSpace(string(data)) == a.expectedHash
}

// trialActive проверяет и продлевает состояние пробного периода.
// Первый запуск инициализирует состояние.
func (a *Authorizer) trialActive() (bool, error) {
	now := a.now().Unix()

	state, backup, err := a.readTrialPair()
	if err != nil {
		return false, err
	}

	if state == nil || backup == nil {
		return true, a.writeTrialPair(now, now)
	}

	if *state != *backup {
		return false, errors.New("копии состояния пробного периода расходятся")
	}
	if state.Mid != machineID() {
		return false, errors.New("идентификатор машины изменился")
	}
	if state.Sig != signTrial(state.FirstRun, state.LastRun, state.Mid) {
		return false, errors.New("подпись состояния не совпадает")
	}
	if state.LastRun > now+int64(clockSkewGrace.Seconds()) {
		return false, errors.New("часы переведены назад")
	}

	expiry := time.Unix(state.FirstRun, 0).AddDate(0, 0, a.trialDays)
	if a.now().After(expiry) {
		a.logger.Info("пробный период истёк", "expired_at", expiry)
		return false, nil
	}

	return true, a.writeTrialPair(state.FirstRun, now)
}

func (a *Authorizer) readTrialPair() (*trialState, *trialState, error) {
	read := func(name string) (*trialState, error) {
		data, err := os.ReadFile(filepath.Join(a.baseDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, err
		}

		var state trialState
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, fmt.Errorf("состояние %s не разобрано: %w", name, err)
		}
		return &state, nil
	}

	state, err := read(trialFileName)
	if err != nil {
		return nil, nil, err
	}

	backup, err := read(trialBackupName)
	if err != nil {
		return nil, nil, err
	}

	return state, backup, nil
}

func (a *Authorizer) writeTrialPair(first, last int64) error {
	mid := machineID()
	state := trialState{
		FirstRun: first,
		LastRun:  last,
		Mid:      mid,
		Sig:      signTrial(first, last, mid),
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(a.baseDir, 0o755); err != nil {
		return fmt.Errorf("не удалось создать каталог состояния: %w", err)
	}

	for _, name := range []string{trialFileName, trialBackupName} {
		if err := os.WriteFile(filepath.Join(a.baseDir, name), data, 0o644); err != nil {
			return fmt.Errorf("не удалось сохранить состояние %s: %w", name, err)
		}
	}

	return nil
}

// promptUnlock запрашивает пароль разблокировки у оператора.
// Совпавший хеш сохраняется в файл, и проверка больше не повторяется.
func (a *Authorizer) promptUnlock() error {
	fmt.Fprint(a.out, "Entrez le mot de passe pour déverrouiller: ")

	reader := bufio.NewReader(a.in)
	password, err := reader.ReadString('\n')
	if err != nil && password == "" {
		return ErrNotAuthorized
	}

	if hashPassword(strings.TrimSpace(password)) != a.expectedHash {
		return ErrNotAuthorized
	}

	if err := os.MkdirAll(a.baseDir, 0o755); err != nil {
		return fmt.Errorf("не удалось создать каталог состояния: %w", err)
	}

	path := filepath.Join(a.baseDir, unlockFileName)
	if err := os.WriteFile(path, []byte(a.expectedHash), 0o600); err != nil {
		return fmt.Errorf("не удалось сохранить файл разблокировки: %w", err)
	}

	a.logger.Info("лицензия разблокирована", "file", path)

	return nil
}
