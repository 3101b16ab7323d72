/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusUnprocessableEntity},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Participant and Message Business Logic Errors
	ErrParticipantNameTaken: {Code: ErrParticipantNameTaken, Message: "This name is already in the room.", Status: http.StatusConflict},
	ErrParticipantNotFound:  {Code: ErrParticipantNotFound, Message: "Participant not found.", Status: http.StatusNotFound},
	ErrSenderNotInRoom:      {Code: ErrSenderNotInRoom, Message: "Sender is not in the room.", Status: http.StatusUnprocessableEntity},
	ErrMessageTypeInvalid:   {Code: ErrMessageTypeInvalid, Message: "Invalid message type.", Status: http.StatusUnprocessableEntity},
	ErrMessageNotFound:      {Code: ErrMessageNotFound, Message: "Message not found.", Status: http.StatusNotFound},

	// 3xxx: Requester Identity Errors
	ErrRequesterMissing: {Code: ErrRequesterMissing, Message: "Missing participant name.", Status: http.StatusUnprocessableEntity},
	ErrNotMessageOwner:  {Code: ErrNotMessageOwner, Message: "Only the sender can change this message.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown:          {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStoreUnavailable: {Code: ErrStoreUnavailable, Message: "Storage is unavailable. Please try again later.", Status: http.StatusInternalServerError},
}
