package exporter

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/joumichy/botorange/internal/domain"
)

// ConsoleReporter печатает оператору человекочитаемую сводку батча.
// Это не структурированный лог: строки предназначены для живого чтения
// во время работы скрипта.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter создает новый экземпляр ConsoleReporter.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// Progress печатает строку прогресса перед обработкой номера.
func (r *ConsoleReporter) Progress(index, total int, phone string) {
	fmt.Fprintf(r.out, "\nRecherche %d/%d: %s\n", index+1, total, phone)
}

// RowStatus печатает цветной статус только что полученной строки.
func (r *ConsoleReporter) RowStatus(row domain.ResultRow) {
	switch row.Status {
	case domain.RowStatusFound:
		color.New(color.FgGreen).Fprintf(r.out, "   [OK] %s - contact: %s\n", row.Status, row.Name)
	case domain.RowStatusNotFound, domain.RowStatusNoContactFound:
		color.New(color.FgYellow).Fprintf(r.out, "   [X] %s\n", row.Status)
	case domain.RowStatusTimeout:
		color.New(color.FgYellow).Fprintf(r.out, "   [T] %s\n", row.Status)
	default:
		color.New(color.FgRed).Fprintf(r.out, "   [!] %s\n", row.Status)
	}
}

// Summary печатает итоговую сводку по завершении батча.
func (r *ConsoleReporter) Summary(rows []domain.ResultRow, outputFile string) {
	counts := make(map[string]int)
	for _, row := range rows {
		counts[row.Status]++
	}
	fmt.Fprintf(r.out, "\nTermine. %d ligne(s) de resultat.\n", len(rows))
	for status, n := range counts {
		fmt.Fprintf(r.out, "  %s: %d\n", status, n)
	}
	fmt.Fprintf(r.out, "Resultats sauvegardes dans %s\n", outputFile)
}
