// Package idgen выдаёт идентификаторы постов и комментариев.
package idgen

import "github.com/google/uuid"

// New возвращает UUIDv7: 48 бит миллисекундного времени и случайный хвост.
// Внутри процесса значения монотонно растут. Это не секрет и не токен.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 падает только если не читается crypto/rand
		return uuid.NewString()
	}
	return id.String()
}
