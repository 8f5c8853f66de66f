package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrAuthRejected     = fmt.Errorf("authentication rejected")
	ErrMalformedFrame   = fmt.Errorf("malformed frame")
	ErrInvalidMessage   = fmt.Errorf("recipient and message are required")
	ErrStaleConnection  = fmt.Errorf("connection is no longer registered")
	ErrTransportSend    = fmt.Errorf("transport send failed")
	ErrStorageFault     = fmt.Errorf("storage fault")
	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrBlocked          = fmt.Errorf("recipient does not accept messages from sender")
	ErrMessageNotFound  = fmt.Errorf("message not found")

	ErrInvalidCredentials  = fmt.Errorf("invalid username or password")
	ErrUserAlreadyExists   = fmt.Errorf("username already exists")
	ErrInvalidRegistration = fmt.Errorf("invalid registration")
	ErrTokenGeneration     = fmt.Errorf("could not generate token")
	ErrUserNotFound        = fmt.Errorf("user not found")

	ErrFriendRequestExists = fmt.Errorf("request already sent")
	ErrAlreadyFriends      = fmt.Errorf("already friends")
	ErrRequestForbidden    = fmt.Errorf("cannot send friend request")
	ErrRequestNotFound     = fmt.Errorf("friend request not found")
	ErrInvalidFriendAction = fmt.Errorf("invalid action")
	ErrSelfFriendRequest   = fmt.Errorf("cannot send request to yourself")
	ErrMissingFields       = fmt.Errorf("missing required fields")
)
