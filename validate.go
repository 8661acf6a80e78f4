package auth

import (
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
)

// FormatValidationErrors flattens an ozzo validation error into a sorted
// list of "field: message" strings, one entry per failing field. Callers
// rely on the exact length matching the number of failed fields.
func FormatValidationErrors(err error) []string {
	if err == nil {
		return []string{}
	}

	errs, ok := err.(validation.Errors)
	if !ok {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(errs))
	for field, ferr := range errs {
		if ferr == nil {
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", field, ferr.Error()))
	}

	sort.Strings(out)

	return out
}

// FormatValidationErrorToMap returns field level validation messages keyed
// by field name
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	errs, ok := err.(validation.Errors)
	if !ok {
		out["error"] = err.Error()
		return out
	}

	for field, ferr := range errs {
		if ferr == nil {
			continue
		}
		out[field] = ferr.Error()
	}

	return out
}
