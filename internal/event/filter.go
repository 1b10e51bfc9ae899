package event

import "strings"

// ParseStatusFilter parses a comma-separated status list from a query
// parameter. An empty string means no filter; every item must be a valid
// status.
func ParseStatusFilter(raw string) ([]Status, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	statuses := make([]Status, 0, len(parts))
	for _, part := range parts {
		s := Status(part)
		if !s.Valid() {
			return nil, ErrInvalidStatusFilter
		}
		statuses = append(statuses, s)
	}

	return statuses, nil
}

// ParseKeywords splits a space-separated keyword list from a query
// parameter. An empty string means no keyword filter.
func ParseKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Fields(raw)
}
