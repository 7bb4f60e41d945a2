package users

import (
	"time"

	"github.com/alwitt/securepass/models"
	"github.com/alwitt/securepass/obfuscate"
)

// accountFileEntry one account as stored inside the users document.
//
// The username acting as the document key and the two question texts are
// stored obfuscated; credential tokens and the registration timestamp are
// stored as plain text.
type accountFileEntry struct {
	Password          string `json:"password"`
	SecurityQuestion1 string `json:"security_question1"`
	SecurityAnswer1   string `json:"security_answer1"`
	SecurityQuestion2 string `json:"security_question2"`
	SecurityAnswer2   string `json:"security_answer2"`
	RegisterTime      string `json:"register_time"`
}

// encodeAccount convert an account into its document form
func encodeAccount(account models.Account) (string, accountFileEntry) {
	entry := accountFileEntry{
		Password:        account.PasswordHash,
		SecurityAnswer1: account.SecurityAnswerHash1,
		SecurityAnswer2: account.SecurityAnswerHash2,
	}
	if account.SecurityQuestion1 != "" {
		entry.SecurityQuestion1 = obfuscate.Encode(account.SecurityQuestion1)
	}
	if account.SecurityQuestion2 != "" {
		entry.SecurityQuestion2 = obfuscate.Encode(account.SecurityQuestion2)
	}
	if !account.CreatedAt.IsZero() {
		entry.RegisterTime = account.CreatedAt.Format(models.TimeLayout)
	}
	return obfuscate.Encode(account.Username), entry
}

// decodeAccount convert a document entry back into an account
func decodeAccount(encodedUsername string, entry accountFileEntry) (models.Account, error) {
	username, err := obfuscate.Decode(encodedUsername)
	if err != nil {
		return models.Account{}, err
	}

	account := models.Account{
		Username:            username,
		PasswordHash:        entry.Password,
		SecurityAnswerHash1: entry.SecurityAnswer1,
		SecurityAnswerHash2: entry.SecurityAnswer2,
	}

	if entry.SecurityQuestion1 != "" {
		if account.SecurityQuestion1, err = obfuscate.Decode(entry.SecurityQuestion1); err != nil {
			return models.Account{}, err
		}
	}
	if entry.SecurityQuestion2 != "" {
		if account.SecurityQuestion2, err = obfuscate.Decode(entry.SecurityQuestion2); err != nil {
			return models.Account{}, err
		}
	}

	if entry.RegisterTime != "" {
		// An unparsable timestamp leaves CreatedAt zero rather than dropping
		// the account
		if parsed, err := time.ParseInLocation(
			models.TimeLayout, entry.RegisterTime, time.Local,
		); err == nil {
			account.CreatedAt = parsed
		}
	}

	return account, nil
}
