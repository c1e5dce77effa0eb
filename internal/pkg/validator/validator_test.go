package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsEmpty(c.input), "IsEmpty(%q)", c.input)
	}
}

func TestIsValidPeriod(t *testing.T) {
	for _, s := range []string{"2026-10", "2020-01"} {
		_, ok := IsValidPeriod(s)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"2026-13", "2026-1", "10-2026", "2026-10-01", ""} {
		_, ok := IsValidPeriod(s)
		assert.False(t, ok, s)
	}

	month, _ := IsValidPeriod("2026-10")
	assert.Equal(t, 2026, month.Year())
	assert.Equal(t, time.October, month.Month())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitList(" a, b,,a , c "))
	assert.Nil(t, SplitList("  "))
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "period", Message: "invalid"},
		{Field: "limit", Message: "too large"},
	}

	assert.Equal(t, "period: invalid; limit: too large", errs.Error())
	assert.Equal(t, map[string]string{"period": "invalid", "limit": "too large"}, errs.ToMap())
}
