package types

// Address identifies a party on the ledger: a payee, payer, buyer, or the
// platform owner. Verification of the address is the execution substrate's
// responsibility; the ledger treats it as an opaque, comparable token.
type Address string

// Nobody is the zero Address. No record may carry it and no caller may
// present it.
const Nobody Address = ""

// IsZero returns true for the zero Address.
func (a Address) IsZero() bool { return a == Nobody }

func (a Address) String() string { return string(a) }
