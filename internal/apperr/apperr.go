package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Kind string

const (
	KindDuplicateEntry           Kind = "duplicate_entry"
	KindInvalidScore             Kind = "invalid_score"
	KindNotFound                 Kind = "not_found"
	KindForbidden                Kind = "forbidden"
	KindValidation               Kind = "validation"
	KindConflict                 Kind = "conflict"
	KindAggregationInconsistency Kind = "aggregation_inconsistency"
)

// Error is the only error type core operations return to callers.
// Field names the conflicting dimension (duplicates) or the offending input.
type Error struct {
	Kind   Kind
	Field  string
	Reason string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Reason
	if msg == "" {
		msg = string(e.Kind)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrDuplicateEntry           = &Error{Kind: KindDuplicateEntry}
	ErrInvalidScore             = &Error{Kind: KindInvalidScore}
	ErrNotFound                 = &Error{Kind: KindNotFound}
	ErrForbidden                = &Error{Kind: KindForbidden}
	ErrValidation               = &Error{Kind: KindValidation}
	ErrConflict                 = &Error{Kind: KindConflict}
	ErrAggregationInconsistency = &Error{Kind: KindAggregationInconsistency}
)

// KindOf returns the kind of the first *Error in the chain, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Duplicate(field, reason string) *Error {
	return &Error{Kind: KindDuplicateEntry, Field: field, Reason: reason}
}

func InvalidScore(score, maxScore int) *Error {
	return &Error{
		Kind:   KindInvalidScore,
		Field:  "score",
		Reason: fmt.Sprintf("score %d must be between 0 and %d", score, maxScore),
	}
}

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Field: entity, Reason: entity + " not found"}
}

func Forbidden(reason string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason}
}

func Invalid(field, reason string) *Error {
	return &Error{Kind: KindValidation, Field: field, Reason: reason}
}

func Conflict(reason string) *Error {
	return &Error{Kind: KindConflict, Reason: reason}
}

func Aggregation(userID uuid.UUID, cause error) *Error {
	return &Error{
		Kind:   KindAggregationInconsistency,
		Field:  userID.String(),
		Reason: "total score of user " + userID.String() + " may be stale",
		Err:    cause,
	}
}

// FromValidator converts validator.ValidationErrors into a Validation error with
// one message per field. Other errors pass through unchanged.
func FromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[lowerFirst(fe.Field())] = fieldMessage(fe)
	}
	return &Error{Kind: KindValidation, Reason: "invalid input", Fields: fields, Err: err}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
