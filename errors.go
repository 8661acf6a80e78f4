package auth

import (
	stderrors "errors"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCreds      = "invalid_credentials"
	TextCodeIdentityNotFound  = "identity_not_found"
	TextCodeDuplicateEmail    = "duplicate_email"
	TextCodeEmptyPassword     = "empty_password"
	TextCodeTokenExpired      = "token_expired"
	TextCodeTokenMalformed    = "token_malformed"
	TextCodeMissingAuthToken  = "missing_auth_token"
	TextCodeTooManyAttempts   = "too_many_login_attempts"
	TextCodeClaimsDecodeError = "claims_decode_error"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned when credentials do not verify.
// Unknown identifiers and wrong passwords both collapse into this error so
// callers cannot tell one from the other.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateEmail is returned when a registration would reuse an email
var ErrDuplicateEmail = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeConflict)

// ErrNoEmptyString is returned when an empty password reaches the hasher
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned for tokens past their expiration claim
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token cannot be parsed or its
// signature does not verify
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrMissingAuthToken is returned when no bearer token is present on a request
var ErrMissingAuthToken = errors.New("missing or malformed authorization header", errors.CategoryAuth).
	WithTextCode(TextCodeMissingAuthToken).
	WithCode(errors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned when a user exceeds the attempt budget
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrUnableToDecodeClaims is returned when token claims cannot be decoded
var ErrUnableToDecodeClaims = errors.New("unable to decode claims", errors.CategoryAuth).
	WithTextCode(TextCodeClaimsDecodeError).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrTokenExpired) {
		return true
	}

	if hasTextCode(err, TextCodeTokenExpired) {
		return true
	}

	return chainContains(err, "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrTokenMalformed) {
		return true
	}

	if hasTextCode(err, TextCodeTokenMalformed) {
		return true
	}

	return chainContains(err, "token is malformed") ||
		chainContains(err, "missing or malformed JWT")
}

func hasTextCode(err error, code string) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// chainContains matches rendered text at every link of the chain; wrappers
// may redact their own message while the source keeps the original text.
func chainContains(err error, fragment string) bool {
	for err != nil {
		if strings.Contains(err.Error(), fragment) {
			return true
		}
		err = stderrors.Unwrap(err)
	}

	return false
}
