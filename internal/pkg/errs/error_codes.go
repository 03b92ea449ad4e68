/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
and in responses to clients, including the `code` field carried on real-time
server:error events.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005

	// ErrUnsupportedEvent indicates a real-time event name outside the closed protocol set.
	ErrUnsupportedEvent = 1006

	// ErrInvalidEventPayload indicates a malformed or invalid real-time event payload.
	ErrInvalidEventPayload = 1007
)

// 2xxx: Listing, Chat, and Message Business Logic Errors
const (
	// ErrProductNotFound indicates that the referenced listing does not exist.
	ErrProductNotFound = 2101

	// ErrProductUnavailable indicates that the listing is sold or otherwise not purchasable.
	ErrProductUnavailable = 2102

	// ErrNotProductSeller indicates that the acting user does not own the listing.
	ErrNotProductSeller = 2103

	// ErrInvalidPickupStatus indicates a pickup status outside the allowed lifecycle values.
	ErrInvalidPickupStatus = 2104

	// ErrMessageContentEmpty indicates message content that is blank after trimming.
	ErrMessageContentEmpty = 2201

	// ErrMessageContentTooLong indicates that the message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2202

	// ErrChatNotFound indicates that the referenced chat does not exist.
	ErrChatNotFound = 2301

	// ErrNotChatParticipant indicates that the acting user is not a participant of the chat.
	ErrNotChatParticipant = 2302

	// ErrNotificationNotFound indicates that the referenced notification does not exist.
	ErrNotificationNotFound = 2401
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates a missing or invalid credential.
	ErrUnauthorized = 3001

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = 3002

	// ErrUserAlreadyExists indicates a signup conflict on username, email, or phone.
	ErrUserAlreadyExists = 3003

	// ErrInvalidUsername indicates a username that fails validation.
	ErrInvalidUsername = 3004

	// ErrInvalidPassword indicates a password that fails validation.
	ErrInvalidPassword = 3005

	// ErrUserNotFound indicates that the referenced account does not exist.
	ErrUserNotFound = 3006

	// ErrSessionReplaced indicates that the connection was closed because the
	// same user opened a newer one.
	ErrSessionReplaced = 3007
)

// 4xxx: Purchase Request Errors
const (
	// ErrRequestOwnProduct indicates a buyer requesting their own listing.
	ErrRequestOwnProduct = 4001

	// ErrDuplicateRequest indicates a purchase request that is already pending
	// for the same (product, buyer) pair.
	ErrDuplicateRequest = 4002

	// ErrRequestAlreadyResolved indicates a duplicate accept/decline on a
	// request that already reached a terminal state. A request that never
	// existed reports the same way: neither case has a pending row left.
	ErrRequestAlreadyResolved = 4004
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates a failure talking to the photo storage backend.
	ErrFileStorageFailed = 5001
)
