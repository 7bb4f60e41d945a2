// Package models - data model of the SecurePass credential core
package models

import "strings"

// NameTypeENUMType vault record name variant ENUM value type
type NameTypeENUMType string

const (
	// NameTypeSingle a single username
	NameTypeSingle NameTypeENUMType = "single"
	// NameTypeSplit separate first and last name
	NameTypeSplit NameTypeENUMType = "split"
	// NameTypeNone no name recorded
	NameTypeNone NameTypeENUMType = "none"
)

// NameInfo the name attached to a vault record, tagged by variant
type NameInfo struct {
	// Type name variant selector
	Type NameTypeENUMType `json:"type" validate:"required,name_type"`
	// Username account name, meaningful when Type is `single`
	Username string `json:"username,omitempty"`
	// FirstName given name, meaningful when Type is `split`
	FirstName string `json:"first_name,omitempty"`
	// LastName family name, meaningful when Type is `split`
	LastName string `json:"last_name,omitempty"`
}

// DisplayName the human readable form of the name
func (n NameInfo) DisplayName() string {
	switch n.Type {
	case NameTypeSingle:
		return n.Username
	case NameTypeSplit:
		return strings.TrimSpace(n.FirstName + " " + n.LastName)
	}
	return "anonymous"
}

// VaultRecord one stored website credential entry within a user's vault
type VaultRecord struct {
	// ID stable record identifier. Assigned by the vault store on insert;
	// identity survives reordering and deletes, unlike a list position.
	ID string `json:"id" validate:"omitempty,uuid_rfc4122"`

	// Website site address the credential belongs to
	Website string `json:"website" validate:"required"`
	// SiteName optional display label for the site
	SiteName string `json:"site_name,omitempty"`

	// Name the name used on the site
	Name NameInfo `json:"name"`

	// Password the stored credential value. Kept retrievable as plain text; the
	// vault file is obscured, not encrypted.
	Password string `json:"password"`

	// Email contact address registered with the site
	Email string `json:"email,omitempty"`
	// Verification verification method used by the site
	Verification string `json:"verification,omitempty"`
	// RegistrationType how the account on the site was registered
	RegistrationType string `json:"registration_type,omitempty"`
	// Notes free-form notes
	Notes string `json:"notes,omitempty"`

	// Timestamp last save time, in TimeLayout form
	Timestamp string `json:"timestamp"`
}
