package grid

import (
	"fmt"
	"sort"
	"strings"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// NextDirection — повторный клик по активной колонке меняет направление, другая колонка начинает с asc
func NextDirection(activeColumn string, activeDir Direction, column string) Direction {
	if activeColumn == column && activeDir == Asc {
		return Desc
	}
	return Asc
}

// Sort возвращает новую, стабильно упорядоченную последовательность строк.
// Пустые значения всегда в конце, независимо от направления.
func Sort(rows []Record, key string, dir Direction) []Record {
	out := make([]Record, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return cmpByKey(out[i], out[j], key, dir) < 0
	})
	return out
}

func cmpByKey(a, b Record, key string, dir Direction) int {
	va, vb := a[key], b[key]
	switch {
	case isBlank(va):
		return +1
	case isBlank(vb):
		return -1
	}
	rel := compareValues(va, vb)
	if dir == Desc {
		rel = -rel
	}
	return rel
}
