package model

import "strconv"

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// Page is a limit/offset window over a listing
type Page struct {
	Limit  int
	Offset int
}

// ParsePage builds a Page from raw query parameters. A missing, zero or
// malformed limit falls back to DefaultPageLimit; the limit is then clamped
// to [0, MaxPageLimit]. A missing or malformed offset is 0; negative offsets
// clamp to 0. Offsets have no upper bound.
func ParsePage(limit, offset string) Page {
	page := Page{Limit: DefaultPageLimit}

	if n, err := strconv.Atoi(limit); err == nil && n != 0 {
		page.Limit = min(max(n, 0), MaxPageLimit)
	}
	if n, err := strconv.Atoi(offset); err == nil {
		page.Offset = max(n, 0)
	}

	return page
}
