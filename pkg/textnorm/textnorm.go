// Package textnorm normaliza nombres de catálogo (tipos de comentario, estados)
// para compararlos sin depender de mayúsculas ni de la forma Unicode de los acentos.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Key devuelve la clave de comparación: NFC, sin espacios sobrantes y con case folding.
// "Nueva  Información enviada" y "nueva información enviada" producen la misma clave.
func Key(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(s)
}

// Equal compara dos nombres con Key.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}
