package validators

import (
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
	"github.com/workoutbrothers/storefront-backend/pkg/pagination"
)

const maxPage = 1_000_000

// Page reads ?page= and ?limit=. Missing values fall back to the first page
// and the default limit; malformed or out-of-range values are rejected.
func Page(q url.Values) (pagination.Params, error) {
	page, err := boundedInt(q, "page", 1, 1, maxPage)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := boundedInt(q, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}

// Text returns the trimmed parameter, cut to at most max bytes.
func Text(q url.Values, key string, max int) string {
	v := strings.TrimSpace(q.Get(key))
	if max > 0 && len(v) > max {
		v = v[:max]
	}
	return v
}

func boundedInt(q url.Values, key string, fallback, lo, hi int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
			WithDetails(map[string]any{"field": key})
	}
	if n < lo || n > hi {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "min": lo, "max": hi})
	}
	return n, nil
}
