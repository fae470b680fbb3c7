package contract

import "errors"

// Kind classifies a failure surfaced in a response's error field.
type Kind string

const (
	KindRequestParse     Kind = "request_parse"
	KindInvalidProject   Kind = "invalid_project"
	KindCompilation      Kind = "compilation"
	KindFunctionNotFound Kind = "function_not_found"
	KindGasConfiguration Kind = "gas_configuration"
	KindExecutionInfra   Kind = "execution_infra"
)

// Error is a gateway failure. Message is the exact text placed in the
// response; Err keeps the cause for errors.Is / errors.As.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf reports the kind carried by err. Untyped errors are infrastructure
// failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindExecutionInfra
}

// ErrorText renders err for a response; nil stays null.
func ErrorText(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	return &msg
}
