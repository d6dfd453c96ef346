// Package errs provides support for application level errors.
package errs

import (
	"fmt"
	"runtime"
)

// Error represents an error inside the application. Code is the http status
// the error maps to, Fields carries field level validation messages.
type Error struct {
	Code     int               `json:"code"`
	Message  string            `json:"message"`
	FuncName string            `json:"-"`
	FileName string            `json:"-"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// New creates an Error with caller information attached for logging.
func New(code int, format string, args ...any) error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// NewValidation creates an Error carrying field level validation messages.
func NewValidation(code int, fields map[string]string) error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     code,
		Message:  "input validation failed",
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
		Fields:   fields,
	}
}

func (er *Error) Error() string {
	return er.Message
}
