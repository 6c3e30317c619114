package content

import (
	"errors"
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to every error returned by the content services.
const (
	TextCodeValidation = "VALIDATION_ERROR"
	TextCodeNotFound   = "NOT_FOUND"
	TextCodeConflict   = "CONFLICT"
	TextCodeStorage    = "STORAGE_ERROR"
)

// NotFound reports a missing record of kind identified by key.
func NotFound(kind, key string) error {
	return goerrors.New(fmt.Sprintf("%s %q not found", kind, key), goerrors.CategoryNotFound).
		WithTextCode(TextCodeNotFound).
		WithMetadata(map[string]any{"kind": kind, "key": key})
}

// Conflict reports a uniqueness or referential conflict.
func Conflict(kind, message string) error {
	return goerrors.New(fmt.Sprintf("%s: %s", kind, message), goerrors.CategoryConflict).
		WithTextCode(TextCodeConflict).
		WithMetadata(map[string]any{"kind": kind})
}

// Invalid reports rejected input with optional per-field details.
func Invalid(kind, message string, fields ...goerrors.FieldError) error {
	return goerrors.NewValidation(fmt.Sprintf("%s: %s", kind, message), fields...).
		WithTextCode(TextCodeValidation).
		WithMetadata(map[string]any{"kind": kind})
}

// StorageFailure is the caller-facing form of a backend failure. The cause is
// logged by the service and intentionally not attached.
func StorageFailure(kind, op string) error {
	return goerrors.New(fmt.Sprintf("%s: storage failure during %s", kind, op), goerrors.CategoryInternal).
		WithTextCode(TextCodeStorage).
		WithMetadata(map[string]any{"kind": kind, "operation": op})
}

func IsValidation(err error) bool { return goerrors.IsCategory(err, goerrors.CategoryValidation) }
func IsNotFound(err error) bool   { return goerrors.IsCategory(err, goerrors.CategoryNotFound) }
func IsConflict(err error) bool   { return goerrors.IsCategory(err, goerrors.CategoryConflict) }

func IsStorage(err error) bool {
	var e *goerrors.Error
	return errors.As(err, &e) && e.TextCode == TextCodeStorage
}

// PublicMessage returns a message safe to show to end users.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *goerrors.Error
	if !errors.As(err, &e) {
		return "unexpected error"
	}
	switch {
	case e.Category == goerrors.CategoryInternal:
		return "the request could not be completed, please retry later"
	case e.Message != "":
		return e.Message
	default:
		return "unexpected error"
	}
}

// fieldErrors flattens ozzo validation errors into go-errors field errors,
// prefixing every field with prefix.
func fieldErrors(prefix string, err error) ([]goerrors.FieldError, error) {
	if err == nil {
		return nil, nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		var internal validation.InternalError
		if errors.As(err, &internal) {
			return nil, internal
		}
		return []goerrors.FieldError{{Field: prefix, Message: err.Error()}}, nil
	}

	keys := make([]string, 0, len(verrs))
	for key := range verrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]goerrors.FieldError, 0, len(keys))
	for _, key := range keys {
		field := key
		if prefix != "" {
			field = prefix + "." + key
		}
		nested, err := fieldErrors(field, verrs[key])
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}
