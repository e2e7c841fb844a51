package validators

import (
	"net/http"
	"strconv"

	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
)

// QueryInt64 parses an optional integer query parameter. A missing or
// empty value yields the fallback; garbage is a validation error.
func QueryInt64(r *http.Request, name string, fallback int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name+" parameter")
	}
	return value, nil
}

// PathInt64 parses a required positive integer route parameter.
func PathInt64(raw, name string) (int64, error) {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+name)
	}
	return value, nil
}
