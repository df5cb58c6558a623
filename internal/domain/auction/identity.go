package auction

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

type IdentityKind string

const (
	IdentityNone    IdentityKind = ""
	IdentityNumeric IdentityKind = "numeric"
	IdentityHandle  IdentityKind = "handle"
)

// Identity is a user or player reference that is either a numeric account id or a handle.
// Compare identities with Key or Equal only.
type Identity struct {
	Kind  IdentityKind `json:"kind,omitempty"`
	Value string       `json:"value,omitempty"`
}

// ParseIdentity is the single canonicalization function for raw identifiers.
func ParseIdentity(raw string) Identity {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "@")
	value = strings.TrimSpace(value)
	if value == "" {
		return Identity{}
	}

	if isDigits(value) {
		n, err := strconv.ParseInt(value, 10, 64)
		if err == nil && n > 0 {
			return NumericIdentity(n)
		}
	}

	return Identity{Kind: IdentityHandle, Value: strings.ToLower(value)}
}

func NumericIdentity(id int64) Identity {
	if id <= 0 {
		return Identity{}
	}
	return Identity{Kind: IdentityNumeric, Value: strconv.FormatInt(id, 10)}
}

func (i Identity) IsZero() bool {
	return i.Kind == IdentityNone || i.Value == ""
}

// Key is the map key for the identity; empty for the zero identity.
func (i Identity) Key() string {
	switch i.Kind {
	case IdentityNumeric:
		return "n:" + i.Value
	case IdentityHandle:
		return "h:" + i.Value
	default:
		return ""
	}
}

func (i Identity) Equal(other Identity) bool {
	return !i.IsZero() && i.Key() == other.Key()
}

func (i Identity) Numeric() (int64, bool) {
	if i.Kind != IdentityNumeric {
		return 0, false
	}
	n, err := strconv.ParseInt(i.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (i Identity) String() string {
	switch i.Kind {
	case IdentityNumeric:
		return i.Value
	case IdentityHandle:
		return "@" + i.Value
	default:
		return ""
	}
}

func containsIdentity(list []Identity, id Identity) bool {
	for _, item := range list {
		if item.Equal(id) {
			return true
		}
	}
	return false
}

// TeamKey folds a team name for case-insensitive matching.
func TeamKey(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}
