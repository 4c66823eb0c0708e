package fields

import (
	"fmt"
	"strings"
)

// Kind is the semantic role of a placeholder region.
type Kind int

const (
	Unknown Kind = iota
	Name
	StaffNumber
	CredentialNumber
	RoleLabel
	Photo
	QRCode
)

var kindNames = [...]string{
	Unknown:          "unknown",
	Name:             "name",
	StaffNumber:      "staff_number",
	CredentialNumber: "credential_number",
	RoleLabel:        "role_label",
	Photo:            "photo",
	QRCode:           "qr_code",
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{Unknown, Name, StaffNumber, CredentialNumber, RoleLabel, Photo, QRCode}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsText reports whether the kind is rendered as centred text.
func (k Kind) IsText() bool {
	switch k {
	case Name, StaffNumber, CredentialNumber, RoleLabel:
		return true
	}
	return false
}

// ParseKind parses a kind name. Case, spaces, hyphens and underscores are
// ignored, so "staff_number", "StaffNumber" and "staff number" are equal.
func ParseKind(s string) (Kind, error) {
	key := squash(s)
	for i, name := range kindNames {
		if squash(name) == key {
			return Kind(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown field kind %q", s)
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("invalid field kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
