package policy_test

import (
	"testing"

	"github.com/alwitt/securepass/models"
	"github.com/alwitt/securepass/policy"
	"github.com/stretchr/testify/assert"
)

func TestStrength(t *testing.T) {
	assert := assert.New(t)

	type testCase struct {
		password string
		expected int
	}
	cases := []testCase{
		// Too short scores nothing beyond its character classes
		{password: "abc1", expected: 2},
		// Length eight with lower and digit
		{password: "abcdefg1", expected: 3},
		// Adds upper case
		{password: "Abcdefg1", expected: 4},
		// Adds a symbol and the twelve character length bonus
		{password: "Abcdefg1!xyz", expected: 5},
		// Score is capped
		{password: "Abcdefg1!xyz#MORE", expected: 5},
		// CJK content forces the floor
		{password: "密码abcDEF12!", expected: 0},
		{password: "", expected: 0},
	}
	for _, oneCase := range cases {
		assert.Equalf(oneCase.expected, policy.Strength(oneCase.password), "password '%s'", oneCase.password)
	}
}

func TestCheck(t *testing.T) {
	assert := assert.New(t)

	// 1 – Acceptable passwords
	for _, password := range []string{"Abcdefg1", "longer-Passw0rd", "abcdefgh12345678ABCD"} {
		assert.Nilf(policy.Check(password), "password '%s'", password)
	}

	// 2 – Rejected passwords
	rejected := []string{
		// Too short
		"Abc1",
		// Too long
		"Abcdefg1-Abcdefg1-Abc",
		// No digit
		"Abcdefghij",
		// No letter
		"12345678!@#",
		// CJK content
		"密码1234abcD",
	}
	for _, password := range rejected {
		err := policy.Check(password)
		assert.ErrorIsf(err, models.ErrPolicyViolation, "password '%s'", password)
	}
}
