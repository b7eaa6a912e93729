package a2a

import (
	"errors"
	"fmt"
	"net/http"
)

// CodeInvalidTaskState sits outside the -32001..-32005 block that A2A
// reserves for its own errors.
const (
	CodeParseError       = -32700
	CodeInvalidRequest   = -32600
	CodeMethodNotFound   = -32601
	CodeInvalidParams    = -32602
	CodeInternal         = -32603
	CodeInvalidTaskState = -32010
)

// Error is a JSON-RPC error object. Errors compare equal under errors.Is when
// their codes match.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

var (
	ErrParse            = &Error{Code: CodeParseError, Message: "invalid JSON payload"}
	ErrInvalidRequest   = &Error{Code: CodeInvalidRequest, Message: "request payload validation error"}
	ErrMethodNotFound   = &Error{Code: CodeMethodNotFound, Message: "method not found"}
	ErrInvalidParams    = &Error{Code: CodeInvalidParams, Message: "invalid parameters"}
	ErrInternal         = &Error{Code: CodeInternal, Message: "internal error"}
	ErrInvalidTaskState = &Error{Code: CodeInvalidTaskState, Message: "invalid task state"}
)

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc %d: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy of e carrying msg.
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

// WithData returns a copy of e carrying data.
func (e *Error) WithData(data any) *Error {
	c := *e
	c.Data = data
	return &c
}

// ClientFault reports whether e was caused by the caller.
func (e *Error) ClientFault() bool {
	return e.Code != CodeInternal
}

// ToError maps any error onto the protocol taxonomy. Unknown errors become
// ErrInternal carrying the error text.
func ToError(err error) *Error {
	if err == nil {
		return nil
	}
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ErrInvalidParams.WithMessage(ve.Error()).WithData(map[string]string{"field": ve.Field})
	}
	return ErrInternal.WithMessage(err.Error())
}

// Phase names where in request handling an error surfaced.
type Phase int

const (
	PhaseParse Phase = iota
	PhaseExecute
)

// HTTPStatus maps an error to a status code. Everything raised while parsing
// is the caller's fault; internal errors raised while executing are ours.
func HTTPStatus(phase Phase, e *Error) int {
	if e == nil {
		return http.StatusOK
	}
	if phase == PhaseExecute && !e.ClientFault() {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
