package recovery_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alwitt/securepass/hashing"
	"github.com/alwitt/securepass/recovery"
	"github.com/alwitt/securepass/users"
	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func defineTestAccounts(t *testing.T) users.AccountStore {
	hasher, err := hashing.NewHasher()
	assert.Nil(t, err)
	store, err := users.NewAccountStore(context.Background(), users.AccountStoreParams{
		UsersFile: filepath.Join(t.TempDir(), "users.json"), Hasher: hasher,
	})
	assert.Nil(t, err)
	return store
}

func TestRecoveryHappyPath(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	accounts := defineTestAccounts(t)
	assert.Nil(accounts.Register(utCtx, users.RegistrationRequest{
		Username:          "alice",
		Password:          "Abcdefg1",
		SecurityQuestion1: "pet name",
		SecurityAnswer1:   "fido",
		SecurityQuestion2: "home town",
		SecurityAnswer2:   "springfield",
	}))

	uut, err := recovery.NewFlow(recovery.FlowParams{Accounts: accounts})
	assert.Nil(err)
	assert.Equal(recovery.FlowStateIdentifyUser, uut.State())

	// 1 – Identify the account
	state, err := uut.SubmitUsername(utCtx, "alice")
	assert.Nil(err)
	assert.Equal(recovery.FlowStateAnswerQuestion, state)
	assert.Equal("alice", uut.Username())
	assert.Equal([]string{"pet name", "home town"}, uut.Questions())
	assert.Equal("pet name", uut.CurrentQuestion())

	// 2 – Cycle through the questions, wrapping around
	next, err := uut.CycleQuestion()
	assert.Nil(err)
	assert.Equal("home town", next)
	next, err = uut.CycleQuestion()
	assert.Nil(err)
	assert.Equal("pet name", next)

	// 3 – Answer correctly
	accepted, err := uut.SubmitAnswer(utCtx, "fido")
	assert.Nil(err)
	assert.True(accepted)
	assert.Equal(recovery.FlowStateResetPassword, uut.State())

	// 4 – Mismatched confirmation is rejected without changing anything
	assert.NotNil(uut.SubmitNewPassword(utCtx, "Newpass99", "Different99"))
	assert.Equal(recovery.FlowStateResetPassword, uut.State())
	assert.Nil(accounts.VerifyLogin(utCtx, "alice", "Abcdefg1"))

	// 5 – Set the replacement password
	assert.Nil(uut.SubmitNewPassword(utCtx, "Newpass99", "Newpass99"))
	assert.Equal(recovery.FlowStateDone, uut.State())
	assert.Nil(accounts.VerifyLogin(utCtx, "alice", "Newpass99"))
}

func TestRecoveryDeadEnds(t *testing.T) {
	assert := assert.New(t)

	utCtx := context.Background()

	accounts := defineTestAccounts(t)
	assert.Nil(accounts.Register(utCtx, users.RegistrationRequest{
		Username: "bob", Password: "Abcdefg1",
	}))

	uut, err := recovery.NewFlow(recovery.FlowParams{Accounts: accounts})
	assert.Nil(err)

	// 1 – Unknown username
	state, err := uut.SubmitUsername(utCtx, "nobody")
	assert.Nil(err)
	assert.Equal(recovery.FlowStateNoSuchUser, state)

	// 2 – Back returns to the start
	uut.Back()
	assert.Equal(recovery.FlowStateIdentifyUser, uut.State())

	// 3 – An account without usable questions
	state, err = uut.SubmitUsername(utCtx, "bob")
	assert.Nil(err)
	assert.Equal(recovery.FlowStateNoQuestionsConfigured, state)

	// 4 – Operations outside their state fail
	_, err = uut.SubmitAnswer(utCtx, "anything")
	assert.NotNil(err)
	_, err = uut.CycleQuestion()
	assert.NotNil(err)
	assert.NotNil(uut.SubmitNewPassword(utCtx, "Newpass99", "Newpass99"))
}

func TestRecoveryWrongAnswers(t *testing.T) {
	assert := assert.New(t)

	utCtx := context.Background()

	accounts := defineTestAccounts(t)
	assert.Nil(accounts.Register(utCtx, users.RegistrationRequest{
		Username:          "alice",
		Password:          "Abcdefg1",
		SecurityQuestion1: "pet name",
		SecurityAnswer1:   "fido",
	}))

	uut, err := recovery.NewFlow(recovery.FlowParams{Accounts: accounts})
	assert.Nil(err)

	_, err = uut.SubmitUsername(utCtx, "alice")
	assert.Nil(err)

	// 1 – Wrong answers keep the flow in place and count up
	for attempt := 1; attempt <= 3; attempt++ {
		accepted, err := uut.SubmitAnswer(utCtx, "rex")
		assert.Nil(err)
		assert.False(accepted)
		assert.Equal(recovery.FlowStateAnswerQuestion, uut.State())
		assert.Equal(attempt, uut.FailedAttempts())
	}

	// 2 – Back clears the transient progress
	uut.Back()
	assert.Equal(recovery.FlowStateIdentifyUser, uut.State())
	assert.Empty(uut.Username())
	assert.Zero(uut.FailedAttempts())
	assert.Empty(uut.Questions())

	// 3 – The flow is reusable after stepping back
	_, err = uut.SubmitUsername(utCtx, "alice")
	assert.Nil(err)
	accepted, err := uut.SubmitAnswer(utCtx, "fido")
	assert.Nil(err)
	assert.True(accepted)
}
