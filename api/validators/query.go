package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
)

const maxCursorLength = 256

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func queryError(key, msg string, extra map[string]any) error {
	details := map[string]any{key: msg}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid query parameter").WithDetails(details)
}

// ParseQueryInt returns def when key is absent and rejects values outside [lo, hi].
func ParseQueryInt(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, queryError(key, "must be an integer", nil)
	}
	if n < lo || n > hi {
		return 0, queryError(key, "out of range", map[string]any{"min": lo, "max": hi})
	}
	return n, nil
}

// ParseQueryEnum upper-cases the raw value before checking it, so
// ?status=pending matches PENDING. Absent keys yield nil.
func ParseQueryEnum[T ~string](r *http.Request, key string, valid func(T) bool) (*T, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return nil, nil
	}
	v := T(strings.ToUpper(raw))
	if !valid(v) {
		return nil, queryError(key, "unsupported value "+strconv.Quote(raw), nil)
	}
	return &v, nil
}

// ParseQueryCursor returns the opaque pagination cursor. Cursors are base64
// text, so anything with control characters or an absurd length is rejected
// before it reaches the decoder.
func ParseQueryCursor(r *http.Request, key string) (string, error) {
	raw := queryValue(r, key)
	if len(raw) > maxCursorLength || SanitizeString(raw, maxCursorLength) != raw {
		return "", queryError(key, "malformed cursor", nil)
	}
	return raw, nil
}
