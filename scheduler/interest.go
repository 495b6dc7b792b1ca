package scheduler

import "github.com/shopspring/decimal"

// percentDaysPerYear converts an annual percentage into a daily fraction.
var percentDaysPerYear = decimal.NewFromInt(36500)

// DailyRate is annualPercent / 36500 rounded half-up to 8 fractional digits.
func DailyRate(annualPercent decimal.Decimal) decimal.Decimal {
	return annualPercent.DivRound(percentDaysPerYear, 8)
}

// DailyInterest is balance * DailyRate(annualPercent) rounded half-up to cents.
func DailyInterest(balance, annualPercent decimal.Decimal) decimal.Decimal {
	return balance.Mul(DailyRate(annualPercent)).Round(2)
}
