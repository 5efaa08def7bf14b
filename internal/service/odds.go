package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/octagonbets/ppv-bot/internal/models"
)

// OddsLinePattern is the format shown to the admin in prompts and errors.
const OddsLinePattern = "<номер>. <кэф1> <кэф2>"

var (
	oddsLineRe  = regexp.MustCompile(`^(\d+)\.?\s+(\S+)\s+(\S+)$`)
	oddsValueRe = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
	minOdds     = decimal.NewFromInt(1)
)

type OddsRule int

const (
	OddsRuleLineCount OddsRule = iota + 1
	OddsRuleBlankLine
	OddsRuleSyntax
	OddsRuleSequence
	OddsRuleValue
)

// ParseError describes the first rule an odds input violated.
type ParseError struct {
	Rule     OddsRule
	Line     int // 1-based, zero for whole-input failures
	Expected string
	Actual   string
}

func (e *ParseError) Error() string {
	switch e.Rule {
	case OddsRuleLineCount:
		return fmt.Sprintf("ожидалось строк: %s, получено: %s", e.Expected, e.Actual)
	case OddsRuleBlankLine:
		return fmt.Sprintf("строка %d пустая", e.Line)
	case OddsRuleSyntax:
		return fmt.Sprintf("строка %d: неверный формат %q, нужно %s", e.Line, e.Actual, e.Expected)
	case OddsRuleSequence:
		return fmt.Sprintf("строка %d: ожидался номер %s, указан %s", e.Line, e.Expected, e.Actual)
	case OddsRuleValue:
		return fmt.Sprintf("строка %d: коэффициент %q должен быть числом больше 1.00", e.Line, e.Actual)
	default:
		return "некорректные коэффициенты"
	}
}

func (e *ParseError) Unwrap() error {
	return models.ErrValidation
}

type FightOdds struct {
	Position int
	Odds     models.Odds
}

// ParseOdds validates admin input of one "<n>. <odds1> <odds2>" line per fight. Nothing is returned
// unless every line is valid.
func ParseOdds(text string, fightCount int) ([]FightOdds, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}
	if len(lines) != fightCount {
		return nil, &ParseError{
			Rule:     OddsRuleLineCount,
			Expected: strconv.Itoa(fightCount),
			Actual:   strconv.Itoa(len(lines)),
		}
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			return nil, &ParseError{Rule: OddsRuleBlankLine, Line: i + 1}
		}
	}

	result := make([]FightOdds, 0, len(lines))
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		match := oddsLineRe.FindStringSubmatch(line)
		if match == nil {
			return nil, &ParseError{Rule: OddsRuleSyntax, Line: lineNo, Expected: OddsLinePattern, Actual: line}
		}
		if n, err := strconv.Atoi(match[1]); err != nil || n != lineNo {
			return nil, &ParseError{Rule: OddsRuleSequence, Line: lineNo, Expected: strconv.Itoa(lineNo), Actual: match[1]}
		}
		first, err := parseOddsValue(match[2])
		if err != nil {
			return nil, &ParseError{Rule: OddsRuleValue, Line: lineNo, Actual: match[2]}
		}
		second, err := parseOddsValue(match[3])
		if err != nil {
			return nil, &ParseError{Rule: OddsRuleValue, Line: lineNo, Actual: match[3]}
		}
		result = append(result, FightOdds{
			Position: i,
			Odds:     models.Odds{Fighter1: first, Fighter2: second},
		})
	}
	return result, nil
}

// parseOddsValue accepts plain decimals like "1.5" or "1,5" (no sign or exponent) and rounds to two
// places; the rounded value must exceed 1.
func parseOddsValue(token string) (decimal.Decimal, error) {
	if !oddsValueRe.MatchString(token) {
		return decimal.Decimal{}, fmt.Errorf("odds %q: %w", token, models.ErrValidation)
	}
	value, err := decimal.NewFromString(strings.ReplaceAll(token, ",", "."))
	if err != nil {
		return decimal.Decimal{}, err
	}
	value = value.Round(2)
	if value.LessThanOrEqual(minOdds) {
		return decimal.Decimal{}, fmt.Errorf("odds %s: %w", value, models.ErrValidation)
	}
	return value, nil
}
