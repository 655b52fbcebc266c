package ports

import (
	"context"
	"image"
	"time"

	"github.com/joumichy/botorange/internal/domain"
)

// ScreenCapturer определяет интерфейс для снятия снимка экрана.
type ScreenCapturer interface {
	// Capture делает снимок указанной области экрана.
	// Нулевой прямоугольник означает весь экран.
	Capture(region image.Rectangle) (*image.RGBA, error)
}

// TemplateMatcher определяет интерфейс для поиска шаблона на экране.
// Каждый вызов выполняет реальный снимок экрана: вызывающая сторона
// отвечает за интервал опроса и не должна вызывать его в плотном цикле.
type TemplateMatcher interface {
	// Locate ищет один шаблон и возвращает лучшую рамку не ниже порога.
	Locate(tmpl domain.Template) domain.DetectionResult
	// LocateAny проверяет упорядоченный список шаблонов и возвращает
	// первый найденный вместе с его порядковым номером.
	LocateAny(tmpls []domain.Template) domain.DetectionResult
}

// WaitStatus - явный трёхзначный результат ожидания шаблона.
type WaitStatus int

const (
	// WaitFound - шаблон найден до истечения срока.
	WaitFound WaitStatus = iota
	// WaitTimedOut - срок ожидания истёк, шаблон так и не появился.
	WaitTimedOut
	// WaitCancelled - ожидание прервано кооперативной отменой.
	WaitCancelled
)

// WaitResult - результат одного ожидания.
type WaitResult struct {
	Status    WaitStatus
	Detection domain.DetectionResult
}

// ScreenPoller определяет интерфейс опроса сопоставителя по таймеру.
type ScreenPoller interface {
	// WaitFor опрашивает сопоставитель, пока шаблон не появится,
	// не истечёт таймаут или не будет отменён контекст.
	WaitFor(ctx context.Context, tmpl domain.Template, timeout time.Duration) WaitResult
	// WaitForAny - то же для упорядоченного набора шаблонов.
	WaitForAny(ctx context.Context, tmpls []domain.Template, timeout time.Duration) WaitResult
}

// InputDriver определяет интерфейс синтетического ввода. Все физические
// действия выполняются по принципу «выстрелил и забыл» с обязательной
// паузой на стабилизацию после каждого действия.
type InputDriver interface {
	Click(x, y int)
	DoubleClick(x, y int)
	TypeText(text string)
	// TypeFast печатает без межсимвольной задержки: для длинных
	// полезных нагрузок, где важна скорость, а не реалистичность.
	TypeFast(text string)
	PressKey(key string)
	SelectAll()
	Copy()
	Paste()
	OpenConsole()
	Settle(d time.Duration)
}

// Clipboard определяет интерфейс буфера обмена как канала данных
// между процессом и браузером.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// SnippetChannel определяет канал выполнения JS-сниппетов в удалённой
// консоли. Канал не имеет протокола подтверждения: результат доступен
// только через буфер обмена и необязательный визуальный маркер.
type SnippetChannel interface {
	// Run вводит ранее загруженный по имени сниппет в консоль и запускает его.
	Run(ctx context.Context, name string) error
	// RemoteCall запускает сниппет и возвращает полезную нагрузку из буфера
	// обмена после появления визуального маркера результата.
	RemoteCall(ctx context.Context, name string, timeout time.Duration) ([]byte, error)
}

// SearchResolver определяет стратегию определения исхода поиска номера.
// Две взаимозаменяемые реализации: локальная гонка горутин и удалённый
// JS-наблюдатель.
type SearchResolver interface {
	Resolve(ctx context.Context, phone string) (domain.SearchOutcome, error)
}

// PhoneSource определяет интерфейс получения входных номеров телефонов
// вместе с метаданными компаний.
type PhoneSource interface {
	// Load возвращает упорядоченный список сырых значений телефонов
	// и отображение нормализованный номер -> данные компании.
	Load() ([]string, map[string]domain.CompanyInfo, error)
}

// ResultExporter определяет интерфейс вывода результатов.
type ResultExporter interface {
	// Export записывает итоговые строки результата.
	Export(rows []domain.ResultRow) error
	// ExportPartial записывает частичные результаты в отдельный файл,
	// не перезаписывая существующие.
	ExportPartial(rows []domain.ResultRow) (string, error)
}

// Authorizer - подключаемая проверка авторизации, вызываемая один раз
// при старте, до начала рабочего процесса.
type Authorizer interface {
	Authorize() error
}
