package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown            = "UNKNOWN"
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeUserAlreadyExists  = "USER_ALREADY_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodePostNotFound       = "POST_NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
)

var enUSCatalog = &Catalog{
	locale: BaseLocale,
	messages: map[Code]string{
		CodeUnknown: "An unexpected error occurred",

		// Validation errors
		CodeInvalidArgument: "Missing or invalid field: {{.Field}}",

		// Account errors. An unknown username renders the same message as
		// a bad password so login responses cannot be used to probe for
		// registered accounts.
		CodeUserNotFound:       "Invalid username or password",
		CodeInvalidCredentials: "Invalid username or password",
		CodeUserAlreadyExists:  "An account with this username or email already exists",
		CodeInvalidToken:       "Token is invalid or expired",

		// Post errors
		CodePostNotFound: "Post not found",
		CodeForbidden:    "You can only modify your own posts",

		// Storage errors
		CodeNotFound:      "The requested resource was not found",
		CodeAlreadyExists: "The resource already exists",
	},
}
