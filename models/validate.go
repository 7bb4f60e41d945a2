package models

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

/*
RegisterWithValidator register with the validator this custom validation support

	@param v *validator.Validate - the validator to register against
	@return whether successful
*/
func RegisterWithValidator(v *validator.Validate) error {
	if err := v.RegisterValidation(
		"name_type", validateNameType,
	); err != nil {
		return err
	}

	if err := v.RegisterValidation(
		"activity_event_type", validateActivityEventType,
	); err != nil {
		return err
	}

	return nil
}

func validateNameType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch NameTypeENUMType(fl.Field().String()) {
	case NameTypeSingle:
		fallthrough
	case NameTypeSplit:
		fallthrough
	case NameTypeNone:
		return true
	}
	return false
}

func validateActivityEventType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch ActivityEventTypeENUMType(fl.Field().String()) {
	case ActivityEventTypeUserRegistered:
		fallthrough
	case ActivityEventTypeLoginSuccess:
		fallthrough
	case ActivityEventTypeLoginFailure:
		fallthrough
	case ActivityEventTypePasswordReset:
		fallthrough
	case ActivityEventTypeVaultRecordSaved:
		fallthrough
	case ActivityEventTypeVaultRecordDeleted:
		fallthrough
	case ActivityEventTypeVaultCleared:
		fallthrough
	case ActivityEventTypeAvatarUpdated:
		fallthrough
	case ActivityEventTypeDataExported:
		fallthrough
	case ActivityEventTypeDataImported:
		return true
	}
	return false
}
