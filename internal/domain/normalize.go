package domain

import (
	"strings"
	"unicode"
)

// CleanPhoneNumbers нормализует сырые значения телефонов из входного файла.
// Для каждого значения: убирается префикс +33, разделители (пробелы, точки,
// дефисы), остаются только цифры, и принудительно добавляется ведущий ноль.
// Значения короче 9 цифр после очистки отбрасываются. Дубликаты сохраняются:
// каждое вхождение обрабатывается независимо.
func CleanPhoneNumbers(raw []string) []string {
	cleaned := make([]string, 0, len(raw))
	for _, value := range raw {
		phone := NormalizePhone(value)
		if phone == "" {
			continue
		}
		cleaned = append(cleaned, phone)
	}
	return cleaned
}

// NormalizePhone приводит одно сырое значение к национальному формату.
// Возвращает пустую строку, если после очистки осталось меньше 9 цифр.
// Повторная нормализация уже нормализованного номера ничего не меняет.
func NormalizePhone(value string) string {
	phone := strings.TrimSpace(value)
	if phone == "" {
		return ""
	}
	phone = strings.ReplaceAll(phone, "+33", "")

	var digits strings.Builder
	for _, ch := range phone {
		if unicode.IsDigit(ch) {
			digits.WriteRune(ch)
		}
	}
	result := digits.String()
	if len(result) < 9 {
		return ""
	}
	if !strings.HasPrefix(result, "0") {
		result = "0" + result
	}
	return result
}

// CleanText схлопывает все последовательности пробельных символов в один
// пробел и обрезает крайние пробелы.
func CleanText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// OnlyDigitsPlus оставляет в строке только цифры и символ '+'.
func OnlyDigitsPlus(value string) string {
	var b strings.Builder
	for _, ch := range CleanText(value) {
		if unicode.IsDigit(ch) || ch == '+' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// NormalizeContact приводит сырой контакт к каноничному виду: текстовые поля
// схлопываются по пробелам, телефонные поля очищаются до цифр и '+',
// email приводится к нижнему регистру. Если имя не заполнено, оно
// собирается из имени и фамилии.
func NormalizeContact(c ContactRecord) ContactRecord {
	firstName := CleanText(c.FirstName)
	lastName := CleanText(c.LastName)
	name := CleanText(c.Name)
	if name == "" {
		name = strings.TrimSpace(firstName + " " + lastName)
	}
	return ContactRecord{
		Name:      name,
		FirstName: firstName,
		LastName:  lastName,
		Email:     strings.ToLower(CleanText(c.Email)),
		Mobile:    OnlyDigitsPlus(c.Mobile),
		Fix:       OnlyDigitsPlus(c.Fix),
		Fonction:  CleanText(c.Fonction),
		Category:  CleanText(c.Category),
	}
}
