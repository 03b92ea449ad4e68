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
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrUnsupportedEvent:     {Code: ErrUnsupportedEvent, Message: "Unsupported event."},
	ErrInvalidEventPayload:  {Code: ErrInvalidEventPayload, Message: "Invalid event payload."},

	// 2xxx: Listing, Chat, and Message Business Logic Errors
	ErrProductNotFound:       {Code: ErrProductNotFound, Message: "Listing not found.", Status: http.StatusNotFound},
	ErrProductUnavailable:    {Code: ErrProductUnavailable, Message: "This item is no longer available."},
	ErrNotProductSeller:      {Code: ErrNotProductSeller, Message: "You do not own this listing.", Status: http.StatusForbidden},
	ErrInvalidPickupStatus:   {Code: ErrInvalidPickupStatus, Message: "Invalid pickup status.", Status: http.StatusBadRequest},
	ErrMessageContentEmpty:   {Code: ErrMessageContentEmpty, Message: "Message cannot be empty."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrChatNotFound:          {Code: ErrChatNotFound, Message: "Chat not found.", Status: http.StatusNotFound},
	ErrNotChatParticipant:    {Code: ErrNotChatParticipant, Message: "You are not part of this chat.", Status: http.StatusForbidden},
	ErrNotificationNotFound:  {Code: ErrNotificationNotFound, Message: "Notification not found.", Status: http.StatusNotFound},

	// 3xxx: User, Session, and Security Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Invalid credentials.", Status: http.StatusUnauthorized},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "An account with this username, email, or phone already exists.", Status: http.StatusConflict},
	ErrInvalidUsername:    {Code: ErrInvalidUsername, Message: "Invalid username.", Status: http.StatusBadRequest},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Password must be between 6 and 50 characters.", Status: http.StatusBadRequest},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},
	ErrSessionReplaced:    {Code: ErrSessionReplaced, Message: "You connected from another device."},

	// 4xxx: Purchase Request Errors
	ErrRequestOwnProduct:      {Code: ErrRequestOwnProduct, Message: "You cannot request your own listing."},
	ErrDuplicateRequest:       {Code: ErrDuplicateRequest, Message: "You already requested this item."},
	ErrRequestAlreadyResolved: {Code: ErrRequestAlreadyResolved, Message: "This request was already handled."},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "Photo upload failed. Please try again.", Status: http.StatusBadGateway},
}
