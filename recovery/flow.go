// Package recovery - guided account recovery via security questions
package recovery

import (
	"context"
	"fmt"

	"github.com/alwitt/goutils"
	"github.com/alwitt/securepass/users"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
)

// FlowStateENUMType recovery flow state ENUM value type
type FlowStateENUMType string

const (
	// FlowStateIdentifyUser waiting for a username
	FlowStateIdentifyUser FlowStateENUMType = "IDENTIFY_USER"

	// FlowStateAnswerQuestion waiting for a recovery answer
	FlowStateAnswerQuestion FlowStateENUMType = "ANSWER_QUESTION"

	// FlowStateResetPassword answer accepted, waiting for the replacement password
	FlowStateResetPassword FlowStateENUMType = "RESET_PASSWORD"

	// FlowStateDone password replaced, flow complete
	FlowStateDone FlowStateENUMType = "DONE"

	// FlowStateNoSuchUser the submitted username is not registered
	FlowStateNoSuchUser FlowStateENUMType = "NO_SUCH_USER"

	// FlowStateNoQuestionsConfigured the account has no usable recovery questions
	FlowStateNoQuestionsConfigured FlowStateENUMType = "NO_QUESTIONS_CONFIGURED"
)

/*
Flow a single account recovery attempt.

The flow is a small state machine. It starts at IDENTIFY_USER; submitting a
registered username with usable questions moves to ANSWER_QUESTION, a correct
answer moves to RESET_PASSWORD, and an accepted replacement password moves to
DONE. NO_SUCH_USER and NO_QUESTIONS_CONFIGURED are terminal dead ends that
Back() recovers from. A Flow is not safe for concurrent use.
*/
type Flow interface {
	/*
		State the current flow state

			@returns current state
	*/
	State() FlowStateENUMType

	/*
		Username the username under recovery, empty before one is accepted

			@returns username
	*/
	Username() string

	/*
		SubmitUsername identify the account to recover

		Only valid in IDENTIFY_USER. Moves to ANSWER_QUESTION when the account
		exists and has at least one usable recovery question, to NO_SUCH_USER
		when the account is unknown, and to NO_QUESTIONS_CONFIGURED otherwise.

			@param ctx context.Context - execution context
			@param username string - the username to recover
			@returns the resulting state
	*/
	SubmitUsername(ctx context.Context, username string) (FlowStateENUMType, error)

	/*
		Questions all usable recovery questions of the identified account

			@returns ordered question texts
	*/
	Questions() []string

	/*
		CurrentQuestion the question currently posed

			@returns question text
	*/
	CurrentQuestion() string

	/*
		CycleQuestion advance to the next recovery question, wrapping around

		Only valid in ANSWER_QUESTION.

			@returns the newly posed question
	*/
	CycleQuestion() (string, error)

	/*
		SubmitAnswer answer the currently posed question

		Only valid in ANSWER_QUESTION. A correct answer moves the flow to
		RESET_PASSWORD; a wrong answer stays put and increments the failed
		attempt counter.

			@param ctx context.Context - execution context
			@param answer string - the submitted answer
			@returns whether the answer was accepted
	*/
	SubmitAnswer(ctx context.Context, answer string) (bool, error)

	/*
		FailedAttempts the number of wrong answers so far in this flow

			@returns failed attempt count
	*/
	FailedAttempts() int

	/*
		SubmitNewPassword replace the account password

		Only valid in RESET_PASSWORD. The two inputs must match and satisfy
		the password policy. On success the flow moves to DONE.

			@param ctx context.Context - execution context
			@param newPassword string - the replacement password
			@param confirmation string - the replacement password, retyped
	*/
	SubmitNewPassword(ctx context.Context, newPassword string, confirmation string) error

	/*
		Back step back to IDENTIFY_USER, discarding progress

		The failed attempt counter and accepted username are cleared.
	*/
	Back()
}

// flowImpl implements Flow
type flowImpl struct {
	goutils.Component

	accounts users.AccountStore

	state          FlowStateENUMType
	username       string
	questions      []string
	questionIdx    int
	failedAttempts int
}

// FlowParams recovery flow init parameters
type FlowParams struct {
	// Accounts the account store to recover against
	Accounts users.AccountStore `validate:"required"`
}

/*
NewFlow define new account recovery flow

	@param params FlowParams - flow parameters
	@returns flow instance
*/
func NewFlow(params FlowParams) (Flow, error) {
	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid recovery flow init parameters [%w]", err)
	}
	return &flowImpl{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "recovery", "component": "flow"},
		},
		accounts: params.Accounts,
		state:    FlowStateIdentifyUser,
	}, nil
}

func (f *flowImpl) State() FlowStateENUMType {
	return f.state
}

func (f *flowImpl) Username() string {
	return f.username
}

func (f *flowImpl) SubmitUsername(
	ctx context.Context, username string,
) (FlowStateENUMType, error) {
	if f.state != FlowStateIdentifyUser {
		return f.state, fmt.Errorf("recovery flow is not expecting a username in state '%s'", f.state)
	}

	if !f.accounts.Exists(ctx, username) {
		f.state = FlowStateNoSuchUser
		return f.state, nil
	}

	questions := f.accounts.SecurityQuestions(ctx, username)
	if len(questions) == 0 {
		f.state = FlowStateNoQuestionsConfigured
		return f.state, nil
	}

	f.username = username
	f.questions = questions
	f.questionIdx = 0
	f.state = FlowStateAnswerQuestion
	return f.state, nil
}

func (f *flowImpl) Questions() []string {
	result := make([]string, len(f.questions))
	copy(result, f.questions)
	return result
}

func (f *flowImpl) CurrentQuestion() string {
	if len(f.questions) == 0 {
		return ""
	}
	return f.questions[f.questionIdx]
}

func (f *flowImpl) CycleQuestion() (string, error) {
	if f.state != FlowStateAnswerQuestion {
		return "", fmt.Errorf("recovery flow is not posing questions in state '%s'", f.state)
	}
	f.questionIdx = (f.questionIdx + 1) % len(f.questions)
	return f.questions[f.questionIdx], nil
}

func (f *flowImpl) SubmitAnswer(ctx context.Context, answer string) (bool, error) {
	if f.state != FlowStateAnswerQuestion {
		return false, fmt.Errorf("recovery flow is not expecting an answer in state '%s'", f.state)
	}

	if !f.accounts.VerifySecurityAnswer(ctx, f.username, f.CurrentQuestion(), answer) {
		f.failedAttempts++
		log.WithFields(f.LogTags).
			WithField("username", f.username).
			WithField("failed_attempts", f.failedAttempts).
			Warn("Recovery answer rejected")
		return false, nil
	}

	f.state = FlowStateResetPassword
	return true, nil
}

func (f *flowImpl) FailedAttempts() int {
	return f.failedAttempts
}

func (f *flowImpl) SubmitNewPassword(
	ctx context.Context, newPassword string, confirmation string,
) error {
	if f.state != FlowStateResetPassword {
		return fmt.Errorf("recovery flow is not expecting a password in state '%s'", f.state)
	}

	if newPassword != confirmation {
		return fmt.Errorf("replacement password and confirmation do not match")
	}

	if err := f.accounts.UpdatePassword(ctx, f.username, newPassword); err != nil {
		return err
	}

	f.state = FlowStateDone
	return nil
}

func (f *flowImpl) Back() {
	f.state = FlowStateIdentifyUser
	f.username = ""
	f.questions = nil
	f.questionIdx = 0
	f.failedAttempts = 0
}
