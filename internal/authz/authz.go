package authz

import "github.com/nomadways/apinomad/internal/auth"

// Capability names a right an account can hold. Capabilities are stored as
// per-account grants; superusers implicitly hold all of them.
type Capability string

const (
	CapListAccounts   Capability = "account.list"
	CapViewAccounts   Capability = "account.view"
	CapChangeAccounts Capability = "account.change"

	CapAddEvent    Capability = "event.add"
	CapChangeEvent Capability = "event.change"
	CapDeleteEvent Capability = "event.delete"

	CapAddVideo      Capability = "video.add"
	CapChangeVideo   Capability = "video.change"
	CapModerateVideo Capability = "video.moderate"
)

// Grants looks up stored capability grants.
type Grants interface {
	Has(accountID int64, capability string) (bool, error)
}

type Authorizer struct {
	grants Grants
}

func New(grants Grants) *Authorizer {
	return &Authorizer{grants: grants}
}

// Authorize reports whether the actor may exercise the capability.
// Lookup errors deny; a failed permission check must never grant access.
func (a *Authorizer) Authorize(actor auth.AuthContext, cap Capability) bool {
	if actor.IsSuperuser {
		return true
	}
	ok, err := a.grants.Has(actor.AccountID, string(cap))
	if err != nil {
		return false
	}
	return ok
}
