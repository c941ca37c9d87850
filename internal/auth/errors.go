package auth

import "errors"

// DenialCause distinguishes why the gate turned a request away. Callers
// at the HTTP boundary translate causes into response codes; everything
// that is not a Denial is a server-side failure.
type DenialCause string

const (
	DenialNoToken         DenialCause = "no_token"
	DenialInvalidToken    DenialCause = "invalid_token"
	DenialTokenExpired    DenialCause = "token_expired"
	DenialSessionInactive DenialCause = "session_inactive"
)

// Denial is a deliberate authentication rejection, as opposed to an
// infrastructure error.
type Denial struct {
	Cause DenialCause
}

func (d *Denial) Error() string {
	return "auth: denied (" + string(d.Cause) + ")"
}

// Deny builds a Denial for the given cause.
func Deny(cause DenialCause) error {
	return &Denial{Cause: cause}
}

// AsDenial unwraps a Denial from an error chain.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// ErrInvalidCredentials is returned by Login for a bad email, a bad
// password, or a deactivated account. The cases are deliberately
// indistinguishable.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// ErrSessionCreation marks a storage failure while recording a new
// session. Issuance must abort: an unrecorded token could never be
// revoked.
var ErrSessionCreation = errors.New("auth: session could not be created")
