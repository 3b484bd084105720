// Package codec кодирует документ в формате JSON.stringify(data, null, 2): отступ в два пробела,
// без экранирования HTML, U+2028 и U+2029, без завершающего перевода строки.
package codec

import (
	"bytes"
	"encoding/json"

	"github.com/UkralStul/modora-posts-service/internal/domain"
)

// Encode сериализует документ в канонический вид.
func Encode(doc *domain.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators возвращает U+2028 и U+2029 в сыром виде: encoding/json экранирует их всегда,
// JSON.stringify - никогда. Экранированный обратный слеш ("\\u2028" в тексте) не трогаем.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) {
			switch string(data[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// Decode разбирает документ и нормализует коллекции.
func Decode(data []byte) (*domain.Document, error) {
	doc := domain.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return doc, nil
}
