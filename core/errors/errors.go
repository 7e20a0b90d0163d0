// Package errors provides coded errors shared across the bot.
package errors

import (
	"fmt"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreLoadReadFailure Code = "store.load.read_failure"
	CodeStoreLoadCorrupt     Code = "store.load.corrupt"
	CodeStoreSaveFailure     Code = "store.save.failure"
	CodeStoreDatabaseFailure Code = "store.database.failure"
	CodeStoreBackendInvalid  Code = "store.backend.invalid"

	CodeConfigLoadReadFailure      Code = "config.load.read_failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeDatabaseConnectFailure Code = "database.connect.failure"
	CodeDatabaseMigrateFailure Code = "database.migrate.failure"

	CodeBotDeliveryFailure Code = "bot.delivery.failure"
	CodeBotPersistFailure  Code = "bot.persist.failure"
	CodeBotPlatformFailure Code = "bot.platform.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// FieldChatID names the chat an error concerns.
func FieldChatID(value int64) Attr {
	return Field("chat_id", value)
}

// FieldPath names the file an error concerns.
func FieldPath(value string) Attr {
	return Field("path", value)
}

// New creates a coded error.
func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

// Errorf creates a coded error with a formatted message.
func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

// Wrap adds code, msg and fields to err. A nil err stays nil.
func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}
	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

// CodeOf returns the deepest code recorded in the error chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	switch code := oopsErr.Code().(type) {
	case Code:
		return code
	case string:
		return Code(code)
	case nil:
		return ""
	default:
		return Code(fmt.Sprintf("%v", code))
	}
}

// HasCode reports whether CodeOf(err) is code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// FieldsOf returns the structured context attached to err.
func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	return oopsErr.Context()
}

// IsDelivery reports whether err is a per-recipient delivery failure.
func IsDelivery(err error) bool {
	return HasCode(err, CodeBotDeliveryFailure)
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}
