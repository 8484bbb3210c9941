package usecase

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const maxNameLen = 255

// normalizeName recorta espacios y normaliza a NFC para que la unicidad por nombre
// no dependa de la forma de composición de los acentos.
func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func validName(s string) bool {
	n := utf8.RuneCountInString(s)
	return n > 0 && n <= maxNameLen
}
