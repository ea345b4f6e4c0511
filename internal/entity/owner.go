package domain

import "strings"

type OwnerKind string

const (
	OwnerAccount OwnerKind = "ACCOUNT"
	OwnerGuest   OwnerKind = "GUEST"
)

// OwnerKey identifies who holds a cart or order: a signed-in account
// or an anonymous guest session. One type, no is-authenticated branches.
type OwnerKey struct {
	Kind OwnerKind
	ID   string // account id or guest session token
}

func AccountKey(accountID string) OwnerKey {
	return OwnerKey{Kind: OwnerAccount, ID: accountID}
}

func GuestKey(sessionToken string) OwnerKey {
	return OwnerKey{Kind: OwnerGuest, ID: sessionToken}
}

func (k OwnerKey) IsGuest() bool { return k.Kind == OwnerGuest }

// String is the storage key form, e.g. "ACCOUNT:42".
func (k OwnerKey) String() string { return string(k.Kind) + ":" + k.ID }

// ParseOwnerKey reverses String.
func ParseOwnerKey(s string) (OwnerKey, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return OwnerKey{}, ErrValidation
	}
	switch OwnerKind(kind) {
	case OwnerAccount, OwnerGuest:
		return OwnerKey{Kind: OwnerKind(kind), ID: id}, nil
	}
	return OwnerKey{}, ErrValidation
}
