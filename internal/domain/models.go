package domain

import "image"

// Template описывает эталонное изображение для поиска на экране
// и параметры его сопоставления.
type Template struct {
	// Логическое имя (ключ в каталоге ассетов), используется в логах.
	Name string
	// Путь к файлу изображения.
	Path string
	// Порог уверенности в [0,1]; совпадения ниже порога отбрасываются.
	Confidence float64
	// Кандидатные масштабы шаблона. Пустой список означает (1.0).
	Scales []float64
	// Необязательная подобласть экрана для поиска. Нулевой Rect - весь экран.
	Region image.Rectangle
	// Смещение клика от центра найденной области: шаблон намеренно
	// захватывает узнаваемую иконку рядом, а не сам интерактивный элемент.
	ClickOffset image.Point
}

// Box представляет найденную на экране ограничивающую рамку.
type Box struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Center возвращает координаты центра рамки.
func (b Box) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// DetectionResult - результат одной попытки сопоставления.
type DetectionResult struct {
	Found bool
	Box   Box
	// Score - лучшая достигнутая корреляция (информативно).
	Score float64
	// VariantIndex - порядковый номер сработавшего шаблона при поиске
	// по набору вариантов; -1 для одиночного шаблона.
	VariantIndex int
}

// SearchStatus - терминальный исход поиска одного номера телефона.
type SearchStatus string

const (
	StatusInterlocutorFound SearchStatus = "INTERLOCUTOR_FOUND"
	StatusNoResult          SearchStatus = "NO_RESULT"
	StatusPrefetchReady     SearchStatus = "PREFETCH_READY"
	StatusTimeout           SearchStatus = "TIMEOUT"
)

// SearchOutcome - классифицированный результат гонки детекторов.
// Ровно один терминальный исход на попытку поиска.
type SearchOutcome struct {
	Status SearchStatus
	// PrefetchData - сырые данные JSON, возвращённые pre-fetch сниппетом
	// (пустые, если pre-fetch не сработал или ничего не вернул).
	PrefetchData []byte
	// ElapsedMS - время до детекции в миллисекундах (если известно).
	ElapsedMS int64
}

// HasResult сообщает, считается ли исход авторитетным успехом:
// кнопка «Interlocuteur» найдена, либо pre-fetch вернул непустые данные.
func (o SearchOutcome) HasResult() bool {
	if o.Status == StatusInterlocutorFound {
		return true
	}
	return o.Status == StatusPrefetchReady && len(o.PrefetchData) > 0
}

// ContactRecord - нормализованный контакт, извлечённый из JSON-полезной
// нагрузки буфера обмена после успешного поиска.
type ContactRecord struct {
	Name      string
	FirstName string
	LastName  string
	Email     string
	Mobile    string
	Fix       string
	Fonction  string
	Category  string
}

// CompanyInfo - метаданные исходной компании для номера телефона.
type CompanyInfo struct {
	Company string
	Siret   string
}

// Статусы строки результата.
const (
	RowStatusFound          = "FOUND"
	RowStatusNotFound       = "NOT_FOUND"
	RowStatusNoContactFound = "NO_CONTACT_FOUND"
	RowStatusTimeout        = "TIMEOUT"
)

// ResultRow - одна строка итогового (или частичного) файла результатов.
type ResultRow struct {
	PhoneSearched string
	Company       string
	Siret         string
	Name          string
	Mobile        string
	Fix           string
	Email         string
	Fonction      string
	Category      string
	Status        string
}

// NewEmptyRow создаёт строку результата без контактных полей
// для указанного статуса.
func NewEmptyRow(phone string, company CompanyInfo, status string) ResultRow {
	return ResultRow{
		PhoneSearched: phone,
		Company:       company.Company,
		Siret:         company.Siret,
		Status:        status,
	}
}

// NewContactRow создаёт строку результата из нормализованного контакта.
func NewContactRow(phone string, company CompanyInfo, c ContactRecord) ResultRow {
	return ResultRow{
		PhoneSearched: phone,
		Company:       company.Company,
		Siret:         company.Siret,
		Name:          c.Name,
		Mobile:        c.Mobile,
		Fix:           c.Fix,
		Email:         c.Email,
		Fonction:      c.Fonction,
		Category:      c.Category,
		Status:        RowStatusFound,
	}
}
