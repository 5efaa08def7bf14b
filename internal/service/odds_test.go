package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octagonbets/ppv-bot/internal/models"
)

func TestParseOddsAcceptsCard(t *testing.T) {
	got, err := ParseOdds("1. 1.5 2.0\n2. 1.2 4.5\n3. 3.0 1.33", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	want := [][2]string{{"1.50", "2.00"}, {"1.20", "4.50"}, {"3.00", "1.33"}}
	for i, item := range got {
		assert.Equal(t, i, item.Position)
		assert.Equal(t, want[i][0], item.Odds.Fighter1.StringFixed(2))
		assert.Equal(t, want[i][1], item.Odds.Fighter2.StringFixed(2))
	}
}

func TestParseOddsFormatVariants(t *testing.T) {
	got, err := ParseOdds("  1 1,85 2,10\r\n2.   1.333   3.999  \n", 2)
	require.NoError(t, err)
	assert.Equal(t, "1.85", got[0].Odds.Fighter1.StringFixed(2))
	assert.Equal(t, "2.10", got[0].Odds.Fighter2.StringFixed(2))
	assert.Equal(t, "1.33", got[1].Odds.Fighter1.StringFixed(2))
	assert.Equal(t, "4.00", got[1].Odds.Fighter2.StringFixed(2))
}

func TestParseOddsRejects(t *testing.T) {
	cases := []struct {
		name  string
		input string
		count int
		rule  OddsRule
		line  int
	}{
		{name: "too few lines", input: "1. 1.5 2.0\n2. 1.2 4.5", count: 3, rule: OddsRuleLineCount},
		{name: "too many lines", input: "1. 1.5 2.0\n2. 1.2 4.5", count: 1, rule: OddsRuleLineCount},
		{name: "empty input", input: "   ", count: 2, rule: OddsRuleLineCount},
		{name: "blank line", input: "1. 1.5 2.0\n  \n3. 3.0 1.33", count: 3, rule: OddsRuleBlankLine, line: 2},
		{name: "missing value", input: "1. 1.5", count: 1, rule: OddsRuleSyntax, line: 1},
		{name: "extra token", input: "1. 1.5 2.0 3.0", count: 1, rule: OddsRuleSyntax, line: 1},
		{name: "no number", input: "x. 1.5 2.0", count: 1, rule: OddsRuleSyntax, line: 1},
		{name: "out of sequence", input: "1. 1.5 2.0\n3. 1.2 4.5", count: 2, rule: OddsRuleSequence, line: 2},
		{name: "not a number", input: "1. abc 2.0", count: 1, rule: OddsRuleValue, line: 1},
		{name: "exactly one", input: "1. 1.00 2.0", count: 1, rule: OddsRuleValue, line: 1},
		{name: "rounds down to one", input: "1. 1.5 1.004", count: 1, rule: OddsRuleValue, line: 1},
		{name: "below one", input: "1. 0.5 2.0", count: 1, rule: OddsRuleValue, line: 1},
		{name: "exponent", input: "1. 1e3 2.0", count: 1, rule: OddsRuleValue, line: 1},
		{name: "explicit sign", input: "1. 1.5 +2", count: 1, rule: OddsRuleValue, line: 1},
		{name: "negative", input: "1. -1.5 2.0", count: 1, rule: OddsRuleValue, line: 1},
		{name: "trailing separator", input: "1. 2. 1.5", count: 1, rule: OddsRuleValue, line: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseOdds(tc.input, tc.count)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, models.ErrValidation))

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tc.rule, perr.Rule)
			assert.Equal(t, tc.line, perr.Line)
			assert.NotEmpty(t, perr.Error())
		})
	}
}

func TestParseOddsCountMismatchReportsNumbers(t *testing.T) {
	_, err := ParseOdds("1. 1.5 2.0\n2. 1.2 4.5", 3)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "3", perr.Expected)
	assert.Equal(t, "2", perr.Actual)
	assert.Contains(t, perr.Error(), "3")
	assert.Contains(t, perr.Error(), "2")
}

func TestParseOddsFirstFailureWins(t *testing.T) {
	// Line 1 has a bad value, line 2 is out of sequence; syntax and sequence are checked per line in order.
	_, err := ParseOdds("1. 0.5 2.0\n5. 1.2 4.5", 2)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, OddsRuleValue, perr.Rule)
	assert.Equal(t, 1, perr.Line)
}
