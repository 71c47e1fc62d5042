package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation           Code = "VALIDATION_ERROR"
	CodeNotFound             Code = "NOT_FOUND"
	CodeNoResults            Code = "NO_RESULTS"
	CodeDuplicateName        Code = "DUPLICATE_NAME"
	CodeDuplicateIdentifier  Code = "DUPLICATE_IDENTIFIER"
	CodeContainerBound       Code = "CONTAINER_ALREADY_BOUND"
	CodeShelfHasContainers   Code = "SHELF_HAS_CONTAINERS"
	CodeInsufficientQuantity Code = "INSUFFICIENT_QUANTITY"
	CodeEntityInUse          Code = "ENTITY_IN_USE"
	CodeCreateFailed         Code = "CREATE_FAILED"
	CodeIdempotency          Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal             Code = "INTERNAL_ERROR"
	CodeDependency           Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeNotFound: {
		HTTPStatus:     http.StatusNotFound,
		PublicMessage:  "resource not found",
		DetailsAllowed: true,
	},
	CodeNoResults: {
		HTTPStatus:     http.StatusNotFound,
		PublicMessage:  "no products matched the search term",
		DetailsAllowed: true,
	},
	CodeDuplicateName: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "name already in use",
		DetailsAllowed: true,
	},
	CodeDuplicateIdentifier: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "identifier already assigned to another product",
		DetailsAllowed: true,
	},
	CodeContainerBound: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "container already bound to a shelf",
		DetailsAllowed: true,
	},
	CodeShelfHasContainers: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "shelf still has containers bound to it",
		DetailsAllowed: true,
	},
	CodeInsufficientQuantity: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "insufficient quantity in container",
		DetailsAllowed: true,
	},
	CodeEntityInUse: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "entity is still referenced",
		DetailsAllowed: true,
	},
	CodeCreateFailed: {
		HTTPStatus:     http.StatusConflict,
		Retryable:      true,
		PublicMessage:  "entity could not be created",
		DetailsAllowed: true,
	},
	CodeIdempotency: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "idempotency key reused",
		DetailsAllowed: true,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the coded error every inventory operation returns to its caller.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

// ForOperation records the operation name in the details map, creating it when needed.
func (e *Error) ForOperation(op string) *Error {
	if e == nil {
		return nil
	}
	switch d := e.details.(type) {
	case nil:
		e.details = map[string]any{"operation": op}
	case map[string]any:
		if _, ok := d["operation"]; !ok {
			d["operation"] = op
		}
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
