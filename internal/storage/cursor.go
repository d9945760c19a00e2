package storage

import "encoding/base64"

// encodeCursor opaquely encodes the last-seen id for resource pagination.
func encodeCursor(id string) string {
	if id == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// decodeCursor decodes a cursor produced by encodeCursor. Invalid or
// unparseable cursors are ignored silently (ok=false), degrading callers
// to "start of results" per the spec's opaque-cursor design note.
func decodeCursor(cursor string) (id string, ok bool) {
	if cursor == "" {
		return "", false
	}
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || len(b) == 0 {
		return "", false
	}
	return string(b), true
}

// paginateByID trims an over-fetched (limit+1) slice down to a page and
// computes the next cursor, given a key extractor.
func paginateByID[T any](items []T, limit int, key func(T) string) ([]T, string, error) {
	if len(items) > limit {
		next := encodeCursor(key(items[limit]))
		return items[:limit], next, nil
	}
	return items, "", nil
}
