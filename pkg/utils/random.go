package utils

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// GenerateID создает уникальный ID для рана или записи в сторе
func GenerateID() string {
	return uuid.NewString()
}

// HashString32 - FNV-1a от строки. Используется для имен подпотоков.
func HashString32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// StringToSeed превращает произвольную строку (например, текстовый сид из UI) в числовой сид.
func StringToSeed(s string) uint32 {
	if s == "" {
		return 0
	}
	return HashString32(s)
}
