package model

import "time"

// MaxPINUses is how many registrations a single PIN may grant.
const MaxPINUses = 2

// RegistrationPIN grants a role to users who self-register with it.
//
// Fields:
//	ID        – primary key identifier.
//	Code      – unique 8 character code.
//	Role      – role granted to the registering user.
//	CreatedBy – admin who issued the PIN.
//	Uses      – registrations performed with this PIN so far.
//	CreatedAt – creation timestamp.
type RegistrationPIN struct {
	ID        uint64    // registration_pins.id
	Code      string    // registration_pins.code
	Role      string    // registration_pins.role
	CreatedBy uint64    // registration_pins.created_by
	Uses      int       // registration_pins.uses
	CreatedAt time.Time // registration_pins.created_at

	CreatorUsername string // joined from users, read paths only
}

// Exhausted reports whether the PIN can no longer be used.
func (p RegistrationPIN) Exhausted() bool { return p.Uses >= MaxPINUses }
