// In file: internal/tools/errors.go
package tools

import "errors"

var (
	// ErrDuplicateTool is returned when a tool name is registered twice.
	ErrDuplicateTool = errors.New("duplicate tool")
	// ErrUnknownTool is returned when a call names a tool absent from the catalog.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments is returned when call arguments fail schema validation.
	ErrInvalidArguments = errors.New("invalid arguments")
	// ErrEmptyEnumeration is returned when a tool schema enumerates no values,
	// e.g. a document selector built from an empty metadata store.
	ErrEmptyEnumeration = errors.New("empty enumeration")
	// ErrResourceNotFound marks a requested document title absent from the store.
	// The selection tool logs it and reports the title in its payload; it is
	// never returned from a call.
	ErrResourceNotFound = errors.New("resource not found")
)
