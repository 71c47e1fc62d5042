package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/shelfstock-backend/pkg/errors"
)

// QueryTermMaxLen bounds free-text query parameters.
const QueryTermMaxLen = 255

// RequiredQuery returns the trimmed value of a query parameter, rejecting blanks.
func RequiredQuery(r *http.Request, key string) (string, error) {
	value := SanitizeString(r.URL.Query().Get(key), QueryTermMaxLen)
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter is required").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
