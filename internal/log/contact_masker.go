package log

import (
	"context"
	"log/slog"
	"regexp"
)

// ContactMaskerHandler - обертка для slog.Handler, которая маскирует
// контактные данные (телефоны, email) в логах, чтобы собранные данные
// не утекали в журналы оператора.
type ContactMaskerHandler struct {
	handler slog.Handler
}

// NewContactMaskerHandler создает новый обработчик с маскировкой контактов.
func NewContactMaskerHandler(handler slog.Handler) *ContactMaskerHandler {
	return &ContactMaskerHandler{
		handler: handler,
	}
}

// телефон: 9+ цифр подряд, возможно с '+' в начале
var phoneRegex = regexp.MustCompile(`\+?\d[\d]{8,}`)

// email: упрощённый шаблон, достаточный для журналов
var emailRegex = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// maskContacts заменяет найденные телефоны и адреса на маски,
// сохраняя последние две цифры номера для сопоставления с входом.
func maskContacts(text string) string {
	masked := phoneRegex.ReplaceAllStringFunc(text, func(m string) string {
		if len(m) < 2 {
			return "***"
		}
		return "*******" + m[len(m)-2:]
	})
	return emailRegex.ReplaceAllString(masked, "***@***")
}

// Enabled реализует интерфейс slog.Handler
func (h *ContactMaskerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler
func (h *ContactMaskerHandler) Handle(ctx context.Context, record slog.Record) error {
	// Собираем свежую запись с нуля: копия через Clone() сохранила бы
	// исходные атрибуты, и немаскированные значения ушли бы в журнал
	// рядом с маскированными.
	r := slog.NewRecord(record.Time, record.Level, maskContacts(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(slog.Attr{
			Key:   a.Key,
			Value: maskAttributeValue(a.Value),
		})
		return true
	})

	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *ContactMaskerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		maskedAttrs[i] = slog.Attr{
			Key:   attr.Key,
			Value: maskAttributeValue(attr.Value),
		}
	}
	return &ContactMaskerHandler{
		handler: h.handler.WithAttrs(maskedAttrs),
	}
}

// WithGroup реализует интерфейс slog.Handler
func (h *ContactMaskerHandler) WithGroup(name string) slog.Handler {
	return &ContactMaskerHandler{
		handler: h.handler.WithGroup(name),
	}
}

// maskAttributeValue рекурсивно маскирует значения атрибутов
func maskAttributeValue(value slog.Value) slog.Value {
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskContacts(value.String()))
	case slog.KindAny:
		// Ошибки приходят как KindAny и могут нести контактные данные
		// в тексте, поэтому маскируются как строки.
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(maskContacts(err.Error()))
		}
		return value
	case slog.KindGroup:
		attrs := value.Group()
		maskedAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			maskedAttrs[i] = slog.Attr{
				Key:   attr.Key,
				Value: maskAttributeValue(attr.Value),
			}
		}
		return slog.GroupValue(maskedAttrs...)
	default:
		return value
	}
}
