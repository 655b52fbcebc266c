package source

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joumichy/botorange/internal/domain"
	"github.com/joumichy/botorange/internal/ports"
)

// SheetName - имя листа входного файла с данными предприятий.
const SheetName = "Entreprises"

// ExcelSource реализует интерфейс PhoneSource для чтения номеров
// из входного файла Excel.
type ExcelSource struct {
	filePath string
}

// NewExcelSource создает новый экземпляр ExcelSource.
func NewExcelSource(filePath string) ports.PhoneSource {
	return &ExcelSource{filePath: filePath}
}

// Load читает лист "Entreprises" и возвращает сырые значения колонки
// "phone" вместе с отображением нормализованный номер -> данные компании.
func (s *ExcelSource) Load() ([]string, map[string]domain.CompanyInfo, error) {
	if s.filePath == "" {
		return nil, nil, fmt.Errorf("не указан путь к входному файлу")
	}

	f, err := excelize.OpenFile(s.filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось открыть файл %s: %w", s.filePath, err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("лист %q не найден в %s: %w", SheetName, s.filePath, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("лист %q пуст", SheetName)
	}

	// Поиск колонок по заголовкам первой строки
	phoneCol, companyCol, siretCol := -1, -1, -1
	for i, header := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(header)) {
		case "phone":
			phoneCol = i
		case "company", "name":
			if companyCol == -1 {
				companyCol = i
			}
		case "siret":
			siretCol = i
		}
	}
	if phoneCol == -1 {
		return nil, nil, fmt.Errorf("колонка 'phone' не найдена в листе %q", SheetName)
	}

	cell := func(row []string, col int) string {
		if col < 0 || col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	var raw []string
	companies := make(map[string]domain.CompanyInfo)
	for _, row := range rows[1:] {
		phone := cell(row, phoneCol)
		if phone == "" {
			continue
		}
		raw = append(raw, phone)

		normalized := domain.NormalizePhone(phone)
		if normalized == "" {
			continue
		}
		if _, exists := companies[normalized]; !exists {
			companies[normalized] = domain.CompanyInfo{
				Company: cell(row, companyCol),
				Siret:   cell(row, siretCol),
			}
		}
	}
	return raw, companies, nil
}
