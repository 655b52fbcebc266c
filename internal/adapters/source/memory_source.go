package source

import (
	"github.com/joumichy/botorange/internal/domain"
	"github.com/joumichy/botorange/internal/ports"
)

// MemorySource реализует интерфейс PhoneSource для чтения номеров
// из памяти (тесты и пробные прогоны).
type MemorySource struct {
	phones    []string
	companies map[string]domain.CompanyInfo
}

// NewMemorySource создает новый экземпляр MemorySource.
func NewMemorySource(phones []string, companies map[string]domain.CompanyInfo) ports.PhoneSource {
	return &MemorySource{phones: phones, companies: companies}
}

// Load возвращает копии данных из памяти, чтобы избежать
// изменений оригинала.
func (s *MemorySource) Load() ([]string, map[string]domain.CompanyInfo, error) {
	phones := make([]string, len(s.phones))
	copy(phones, s.phones)

	companies := make(map[string]domain.CompanyInfo, len(s.companies))
	for k, v := range s.companies {
		companies[k] = v
	}
	return phones, companies, nil
}
