package server

import (
	"encoding/json"
	"net/http"

	"github.com/complykit/screendiff/pkg/errors"
)

// Response is the envelope every API endpoint returns: data on success,
// error on failure, never both.
type Response struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// APIError carries a stable code plus a human-readable message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success wraps data in a response envelope.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail builds an error envelope.
func Fail(code, message, details string) Response {
	return Response{Error: &APIError{Code: code, Message: message, Details: details}}
}

// WriteJSON writes an envelope with the given status code.
func WriteJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; encoding failures are best effort.
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a 200 envelope.
func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Success(data))
}

// Created writes a 201 envelope.
func Created(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Success(data))
}

// BadRequest writes a 400 envelope.
func BadRequest(w http.ResponseWriter, message, details string) {
	WriteJSON(w, http.StatusBadRequest, Fail("BAD_REQUEST", message, details))
}

// NotFound writes a 404 envelope.
func NotFound(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusNotFound, Fail("NOT_FOUND", message, ""))
}

// MethodNotAllowed writes a 405 envelope.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	WriteJSON(w, http.StatusMethodNotAllowed, Fail(
		"METHOD_NOT_ALLOWED",
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// InternalError writes a 500 envelope without exposing the cause.
func InternalError(w http.ResponseWriter) {
	WriteJSON(w, http.StatusInternalServerError, Fail(
		"INTERNAL_ERROR",
		"Internal server error",
		"An unexpected error occurred",
	))
}

// FromError maps a typed error to the closest HTTP response.
func FromError(w http.ResponseWriter, err error) {
	switch {
	case errors.IsValidationError(err):
		BadRequest(w, err.Error(), "")
	case errors.IsNotFound(err):
		NotFound(w, err.Error())
	default:
		var parseErr *errors.ParseError
		if errors.As(err, &parseErr) {
			BadRequest(w, err.Error(), "")
			return
		}
		InternalError(w)
	}
}
