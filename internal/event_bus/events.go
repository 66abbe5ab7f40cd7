package event_bus

import "time"

const (
	// CredentialRenewed is published with a CredentialRenewedData payload after every
	// successful acquisition.
	CredentialRenewed EventType = "credential.renewed"
	// CredentialSignedOut is published with a CredentialSignedOutData payload once the
	// session has been cleared.
	CredentialSignedOut EventType = "credential.signed_out"
)

type CredentialRenewedData struct {
	Expiry      time.Time
	Interactive bool
}

type CredentialSignedOutData struct {
	At time.Time
}
