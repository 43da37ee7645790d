package server

import (
	"fmt"
)

// BindError reports a listener that could not be bound to the requested port.
type BindError struct {
	Port uint16
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind server to port %d: %v", e.Port, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// BadTLSParamsError reports credentials that cannot form a TLS server configuration.
type BadTLSParamsError struct {
	Err error
}

func (e *BadTLSParamsError) Error() string {
	return fmt.Sprintf("bad TLS parameters: %v", e.Err)
}

func (e *BadTLSParamsError) Unwrap() error {
	return e.Err
}

// PanicError is the failure outcome of a handler that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}
