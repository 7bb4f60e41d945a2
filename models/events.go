package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// ActivityEventTypeENUMType activity event type ENUM value type
type ActivityEventTypeENUMType string

const (
	// ActivityEventTypeUserRegistered a new account was registered
	ActivityEventTypeUserRegistered ActivityEventTypeENUMType = "USER_REGISTERED"

	// ActivityEventTypeLoginSuccess a login attempt succeeded
	ActivityEventTypeLoginSuccess ActivityEventTypeENUMType = "LOGIN_SUCCESS"

	// ActivityEventTypeLoginFailure a login attempt failed
	ActivityEventTypeLoginFailure ActivityEventTypeENUMType = "LOGIN_FAILURE"

	// ActivityEventTypePasswordReset an account password was replaced
	ActivityEventTypePasswordReset ActivityEventTypeENUMType = "PASSWORD_RESET"

	// ActivityEventTypeVaultRecordSaved a vault record was inserted or updated
	ActivityEventTypeVaultRecordSaved ActivityEventTypeENUMType = "VAULT_RECORD_SAVED"

	// ActivityEventTypeVaultRecordDeleted vault records were deleted
	ActivityEventTypeVaultRecordDeleted ActivityEventTypeENUMType = "VAULT_RECORD_DELETED"

	// ActivityEventTypeVaultCleared a vault was emptied
	ActivityEventTypeVaultCleared ActivityEventTypeENUMType = "VAULT_CLEARED"

	// ActivityEventTypeAvatarUpdated a user avatar was replaced or removed
	ActivityEventTypeAvatarUpdated ActivityEventTypeENUMType = "AVATAR_UPDATED"

	// ActivityEventTypeDataExported the data set was exported
	ActivityEventTypeDataExported ActivityEventTypeENUMType = "DATA_EXPORTED"

	// ActivityEventTypeDataImported a data set was imported
	ActivityEventTypeDataImported ActivityEventTypeENUMType = "DATA_IMPORTED"
)

// ActivityEvent recording of one account or vault level event
type ActivityEvent struct {
	// ID event entry ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`
	// EventType activity event type
	EventType ActivityEventTypeENUMType `json:"type" gorm:"column:type;not null" validate:"required,activity_event_type"`
	// Metadata metadata relating to the event
	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"column:metadata;default:null"`
	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseMetadata parse the metadata based on the event type
func (e ActivityEvent) ParseMetadata(validator *validator.Validate) (interface{}, error) {
	switch e.EventType {
	// Account related activity events
	case ActivityEventTypeUserRegistered:
		fallthrough
	case ActivityEventTypeLoginSuccess:
		fallthrough
	case ActivityEventTypeLoginFailure:
		fallthrough
	case ActivityEventTypePasswordReset:
		fallthrough
	case ActivityEventTypeVaultCleared:
		fallthrough
	case ActivityEventTypeAvatarUpdated:
		var parsed ActivityEventAccountRelated
		if err := json.Unmarshal(e.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("activity event '%s' metadata parse failed [%w]", e.EventType, err)
		}
		return parsed, validator.Struct(&parsed)

	// Vault record related activity events
	case ActivityEventTypeVaultRecordSaved:
		fallthrough
	case ActivityEventTypeVaultRecordDeleted:
		var parsed ActivityEventRecordRelated
		if err := json.Unmarshal(e.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("activity event '%s' metadata parse failed [%w]", e.EventType, err)
		}
		return parsed, validator.Struct(&parsed)

	// Data transfer related activity events
	case ActivityEventTypeDataExported:
		fallthrough
	case ActivityEventTypeDataImported:
		var parsed ActivityEventTransferRelated
		if err := json.Unmarshal(e.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("activity event '%s' metadata parse failed [%w]", e.EventType, err)
		}
		return parsed, validator.Struct(&parsed)
	}
	return nil, nil
}

// ActivityEventAccountRelated activity event metadata related to one account
type ActivityEventAccountRelated struct {
	// Username the account the event relates to
	Username string `json:"username" validate:"required"`
}

// ActivityEventRecordRelated activity event metadata related to vault records
type ActivityEventRecordRelated struct {
	// Username the vault owner
	Username string `json:"username" validate:"required"`
	// RecordIDs the vault records involved
	RecordIDs []string `json:"record_ids" validate:"required,min=1"`
}

// ActivityEventTransferRelated activity event metadata related to data transfer
type ActivityEventTransferRelated struct {
	// Directory the directory data was copied to or from
	Directory string `json:"directory" validate:"required"`
	// Items the top level items copied
	Items []string `json:"items"`
}
