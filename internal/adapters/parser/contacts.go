package parser

import (
	"encoding/json"
	"strings"

	"github.com/joumichy/botorange/internal/domain"
)

// rawContact - структура контакта, как её возвращает сниппет извлечения.
// Сниппет может прислать и 'fix', и 'fixe' для стационарного номера.
type rawContact struct {
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
	Fix       string `json:"fix"`
	Fixe      string `json:"fixe"`
	Fonction  string `json:"fonction"`
	Category  string `json:"category"`
}

// ParseContacts разбирает полезную нагрузку буфера обмена как массив JSON
// сырых контактов и нормализует каждый. Пустая или некорректная нагрузка
// трактуется как пустой набор результатов, а не как ошибка: содержимое
// буфера никем не гарантируется.
func ParseContacts(payload []byte) []domain.ContactRecord {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return nil
	}

	var raw []rawContact
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil
	}

	contacts := make([]domain.ContactRecord, 0, len(raw))
	for _, r := range raw {
		fix := r.Fix
		if fix == "" {
			fix = r.Fixe
		}
		contacts = append(contacts, domain.NormalizeContact(domain.ContactRecord{
			Name:      r.Name,
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Email:     r.Email,
			Mobile:    r.Mobile,
			Fix:       fix,
			Fonction:  r.Fonction,
			Category:  r.Category,
		}))
	}
	return contacts
}

// watcherReport - консолидированный отчёт удалённого JS-наблюдателя.
type watcherReport struct {
	Status    string `json:"status"`
	HasResult bool   `json:"hasResult"`
	Elapsed   int64  `json:"elapsed"`
}

// ParseWatcherReport разбирает отчёт наблюдателя. Некорректный отчёт
// возвращает ok=false, что трактуется вызывающей стороной как таймаут.
func ParseWatcherReport(payload []byte) (status string, elapsedMS int64, ok bool) {
	var report watcherReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return "", 0, false
	}
	if report.Status == "" {
		return "", 0, false
	}
	return report.Status, report.Elapsed, true
}
