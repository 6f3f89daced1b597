package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrUserNotFound    = fmt.Errorf("user not found")
	ErrIdentityMissing = fmt.Errorf("node identity not found in database")
	ErrCertMismatch    = fmt.Errorf("presented certificate does not match stored certificate")
	ErrInvalidCertName = fmt.Errorf("certificate common name is not a UUID")

	ErrNoVerificationInProgress = fmt.Errorf("user verification not in progress")
	ErrVerificationRejected     = fmt.Errorf("verification was rejected")
	ErrVerificationTimeout      = fmt.Errorf("verification timed out")

	ErrNotMember       = fmt.Errorf("user is not a member of this room")
	ErrNoRoomMembers   = fmt.Errorf("room has no reachable members")
	ErrInvalidRoomName = fmt.Errorf("invalid room name")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrAuthDisabled       = fmt.Errorf("ui authentication is not configured")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
)
