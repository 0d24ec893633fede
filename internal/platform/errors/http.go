package errors

import (
	"errors"
	"net/http"

	"github.com/inkstream/inkstream/internal/platform/errors/i18n"
)

// HandleHTTP converts domain errors to an HTTP status code and a
// user-facing message formatted from the i18n catalog. It is the HTTP
// counterpart of HandleError so both transports present the same outcome
// for the same domain error.
func HandleHTTP(err error, locale string) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	if locale == "" {
		locale = DefaultLocale
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		catalog := i18n.GetCatalog(locale)
		userMsg := catalog.Format(string(appErr.Code), appErr.Metadata)
		return appErr.Code.HTTPStatus(), userMsg
	}

	// Unknown error - never leak internals to the wire
	return http.StatusInternalServerError, "an unexpected error occurred"
}
