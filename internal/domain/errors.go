package domain

import (
	"errors"
	"fmt"
)

// Error kinds classify workflow rejections so transport layers can map
// them to response codes without string matching.
const (
	KindNotFound     = "not_found"
	KindValidation   = "validation"
	KindInvalidState = "invalid_state"
	KindBusinessRule = "business_rule"
)

// Error is the workflow rejection type. Entity names the subject for
// not-found and wrong-state rejections; Reason is the human-readable
// message.
type Error struct {
	Kind   string
	Entity string
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

// ErrNotFound reports a missing entity.
func ErrNotFound(entity string, id int64) error {
	return &Error{
		Kind:   KindNotFound,
		Entity: entity,
		Reason: fmt.Sprintf("%s %d not found", entity, id),
	}
}

// ErrValidation reports malformed or incomplete input.
func ErrValidation(format string, args ...interface{}) error {
	return &Error{
		Kind:   KindValidation,
		Reason: fmt.Sprintf(format, args...),
	}
}

// ErrInvalidState reports an operation applied to an entity whose
// lifecycle state does not permit it.
func ErrInvalidState(entity, format string, args ...interface{}) error {
	return &Error{
		Kind:   KindInvalidState,
		Entity: entity,
		Reason: fmt.Sprintf(format, args...),
	}
}

// ErrBusinessRule reports a request that is well formed but blocked by a
// business rule, the no-oversell guard for instance.
func ErrBusinessRule(format string, args ...interface{}) error {
	return &Error{
		Kind:   KindBusinessRule,
		Reason: fmt.Sprintf(format, args...),
	}
}

func kindOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsNotFound(err error) bool     { return kindOf(err) == KindNotFound }
func IsValidation(err error) bool   { return kindOf(err) == KindValidation }
func IsInvalidState(err error) bool { return kindOf(err) == KindInvalidState }
func IsBusinessRule(err error) bool { return kindOf(err) == KindBusinessRule }
