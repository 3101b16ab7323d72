/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
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
	ErrRateLimitExceeded = 1007
)

// 2xxx: Participant and Message Business Logic Errors
const (
	// ErrParticipantNameTaken indicates that a live participant already uses the requested name.
	ErrParticipantNameTaken = 2101

	// ErrParticipantNotFound indicates that no live participant has the given name.
	ErrParticipantNotFound = 2102

	// ErrSenderNotInRoom indicates that a message was sent by someone who is not a live participant.
	ErrSenderNotInRoom = 2103

	// ErrMessageTypeInvalid indicates that the message type is neither a broadcast nor a private message.
	ErrMessageTypeInvalid = 2201

	// ErrMessageNotFound indicates that no message exists with the given id.
	ErrMessageNotFound = 2202
)

// 3xxx: Requester Identity Errors
const (
	// ErrRequesterMissing indicates the request did not carry the participant name header.
	ErrRequesterMissing = 3001

	// ErrNotMessageOwner indicates the requester tried to act on a message sent by someone else.
	ErrNotMessageOwner = 3002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStoreUnavailable indicates that a participant or message store call failed.
	ErrStoreUnavailable = 5001
)
