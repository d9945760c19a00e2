package retrieval

import "encoding/base64"

// EncodeCursor opaquely encodes the last-emitted entry id.
func EncodeCursor(id string) string {
	if id == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// DecodeCursor decodes a cursor produced by EncodeCursor. Invalid or
// unparseable cursors are ignored silently, yielding the first page.
func DecodeCursor(cursor string) (id string, ok bool) {
	if cursor == "" {
		return "", false
	}
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || len(b) == 0 {
		return "", false
	}
	return string(b), true
}

// Page finds cursor's id in the sorted results and returns the next limit
// items after it, plus a next cursor when a further page exists. An
// unmatched or empty cursor starts from the beginning.
func Page(results []Scored, cursor string, limit int) ([]Scored, string) {
	start := 0
	if id, ok := DecodeCursor(cursor); ok {
		for i, r := range results {
			if r.Entry.ID == id {
				start = i + 1
				break
			}
		}
	}
	if start >= len(results) {
		return []Scored{}, ""
	}
	end := start + limit
	if end > len(results) {
		end = len(results)
	}
	page := results[start:end]
	next := ""
	if end < len(results) && len(page) > 0 {
		next = EncodeCursor(page[len(page)-1].Entry.ID)
	}
	return page, next
}
