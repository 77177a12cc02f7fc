package grid

import (
	"errors"
	"fmt"
	"strconv"
)

// draftKey — синтетический ключ строки в черновике рендерера: "row-<позиция>"
const (
	draftKey       = "id"
	draftPrefixLen = len("row-")
)

var ErrDraftRow = errors.New("draft row not found")

// PrepareEdit превращает черновик рендерера в запись для сохранения:
// по синтетическому ключу находит строку в текущем отфильтрованном наборе,
// подставляет её настоящий Id и убирает синтетический ключ. Черновик не меняется.
func PrepareEdit(draft map[string]any, filtered []Record) (map[string]any, error) {
	key, _ := draft[draftKey].(string)
	if len(key) <= draftPrefixLen {
		return nil, fmt.Errorf("%w: bad draft key %q", ErrDraftRow, key)
	}
	pos, err := strconv.Atoi(key[draftPrefixLen:])
	if err != nil {
		return nil, fmt.Errorf("%w: bad draft key %q", ErrDraftRow, key)
	}
	if pos < 0 || pos >= len(filtered) {
		return nil, fmt.Errorf("%w: position %d of %d", ErrDraftRow, pos, len(filtered))
	}
	row := filtered[pos]
	id := row.ID()
	if id == "" {
		return nil, fmt.Errorf("%w: row %d has no %s", ErrDraftRow, pos, FieldID)
	}

	out := make(map[string]any, len(draft))
	for k, v := range draft {
		if k == draftKey {
			continue
		}
		out[k] = v
	}
	out[FieldID] = row[FieldID]
	return out, nil
}
