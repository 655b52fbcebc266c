package exporter

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joumichy/botorange/internal/domain"
)

// resultHeaders - колонки выходного файла, в порядке записи.
var resultHeaders = []string{
	"phone_searched", "company", "siret", "name",
	"mobile", "fix", "email", "fonction", "category", "status",
}

// ExcelExporter реализует интерфейс ResultExporter для записи
// результатов в файл Excel.
type ExcelExporter struct {
	outputFile string
	sheetName  string
	// now подменяется в тестах
	now func() time.Time
}

// NewExcelExporter создает новый экземпляр ExcelExporter.
func NewExcelExporter(outputFile string) *ExcelExporter {
	return &ExcelExporter{
		outputFile: outputFile,
		sheetName:  "Resultats",
		now:        time.Now,
	}
}

// Export записывает итоговые строки результата в выходной файл.
func (e *ExcelExporter) Export(rows []domain.ResultRow) error {
	return e.write(e.outputFile, rows)
}

// ExportPartial записывает частичные результаты в файл с суффиксом
// даты-времени. Существующие файлы не перезаписываются: при коллизии
// к имени добавляется счётчик.
func (e *ExcelExporter) ExportPartial(rows []domain.ResultRow) (string, error) {
	stamp := e.now().Format("2006-01-02_15-04-05")
	base := strings.TrimSuffix(e.outputFile, ".xlsx") + "_partial_" + stamp + ".xlsx"

	path := base
	counter := 2
	for {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = strings.TrimSuffix(base, ".xlsx") + fmt.Sprintf("_%d.xlsx", counter)
		counter++
	}

	if err := e.write(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

// write создаёт книгу с одной строкой на результат.
func (e *ExcelExporter) write(path string, rows []domain.ResultRow) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	index, err := f.NewSheet(e.sheetName)
	if err != nil {
		return fmt.Errorf("не удалось создать лист: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("не удалось удалить лист по умолчанию: %w", err)
	}

	// Заголовки
	for i, h := range resultHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(e.sheetName, cell, h); err != nil {
			return fmt.Errorf("не удалось записать заголовок: %w", err)
		}
	}

	// Данные
	for i, row := range rows {
		values := []string{
			row.PhoneSearched, row.Company, row.Siret, row.Name,
			row.Mobile, row.Fix, row.Email, row.Fonction, row.Category, row.Status,
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(e.sheetName, cell, value); err != nil {
				return fmt.Errorf("не удалось записать строку %d: %w", i+1, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("не удалось сохранить %s: %w", path, err)
	}
	return nil
}
