package models

import "time"

// TimeLayout timestamp layout used inside the persisted JSON documents
const TimeLayout = "2006-01-02 15:04:05"

// Account a registered user account
type Account struct {
	// Username unique account identifier, case-sensitive
	Username string `json:"username" validate:"required"`

	// PasswordHash credential token in `digesthex:salthex` form
	PasswordHash string `json:"password_hash" validate:"required"`

	// SecurityQuestion1 first recovery question text, empty when unset
	SecurityQuestion1 string `json:"security_question_1,omitempty"`
	// SecurityAnswerHash1 credential token for the first recovery answer
	SecurityAnswerHash1 string `json:"security_answer_hash_1,omitempty"`

	// SecurityQuestion2 second recovery question text, empty when unset
	SecurityQuestion2 string `json:"security_question_2,omitempty"`
	// SecurityAnswerHash2 credential token for the second recovery answer
	SecurityAnswerHash2 string `json:"security_answer_hash_2,omitempty"`

	// CreatedAt registration timestamp, immutable after registration
	CreatedAt time.Time `json:"created_at"`
}

/*
RecoveryQuestions the recovery questions usable for password recovery.

A question slot is usable only when both the question text and the stored answer
hash are present. Slot one is returned before slot two.

	@returns ordered list of question texts
*/
func (a Account) RecoveryQuestions() []string {
	questions := []string{}
	if a.SecurityQuestion1 != "" && a.SecurityAnswerHash1 != "" {
		questions = append(questions, a.SecurityQuestion1)
	}
	if a.SecurityQuestion2 != "" && a.SecurityAnswerHash2 != "" {
		questions = append(questions, a.SecurityQuestion2)
	}
	return questions
}

/*
AnswerHashForQuestion find the stored answer hash for a question text.

The question is matched against both slots. A slot with no stored answer hash
never matches.

	@param question string - the question text as shown to the user
	@returns the stored answer token, and whether a usable slot matched
*/
func (a Account) AnswerHashForQuestion(question string) (string, bool) {
	if question == "" {
		return "", false
	}
	if a.SecurityQuestion1 == question && a.SecurityAnswerHash1 != "" {
		return a.SecurityAnswerHash1, true
	}
	if a.SecurityQuestion2 == question && a.SecurityAnswerHash2 != "" {
		return a.SecurityAnswerHash2, true
	}
	return "", false
}
