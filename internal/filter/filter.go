// Package filter implements the stateless admission filter applied to each
// parsed insider transaction before an opportunity is persisted.
package filter

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"insiderwatch/internal/parser"
)

var hundred = decimal.NewFromInt(100)

// Config is the admission-filter snapshot for one poll cycle. The settings
// layer resolves defaults before building it: a zero MinMarketCap leaves
// only the missing-cap reject, and a zero OptionsDealThresholdPercent
// disables the options screen entirely.
type Config struct {
	AllowedInsiderTitles        []string
	MinTransactionValue         *decimal.Decimal
	PreviousDayOnly             bool
	MinMarketCap                decimal.Decimal
	OptionsDealThresholdPercent decimal.Decimal
}

// Passes reports whether a transaction clears every configured filter.
// marketCap is in millions; a missing market cap is a hard reject.
func Passes(tx parser.InsiderTransaction, currentPrice decimal.Decimal, marketCap *decimal.Decimal, cfg Config, refDate time.Time) bool {
	if marketCap == nil || marketCap.LessThan(cfg.MinMarketCap) {
		return false
	}

	if cfg.MinTransactionValue != nil && cfg.MinTransactionValue.IsPositive() {
		value := tx.PricePerShare.Mul(tx.Shares)
		if value.LessThan(*cfg.MinTransactionValue) {
			return false
		}
	}

	if cfg.PreviousDayOnly {
		previousDay := refDate.UTC().AddDate(0, 0, -1).Format("2006-01-02")
		if tx.TransactionDate != previousDay {
			return false
		}
	}

	// Acquisitions priced far under the live quote are option exercises, not
	// open-market conviction buys. The boundary itself passes.
	if tx.Code == parser.CodeAcquisition && cfg.OptionsDealThresholdPercent.IsPositive() {
		floor := currentPrice.Mul(cfg.OptionsDealThresholdPercent).Div(hundred)
		if tx.PricePerShare.LessThan(floor) {
			return false
		}
	}

	if len(cfg.AllowedInsiderTitles) > 0 {
		title := strings.ToLower(DeriveTitle(tx))
		matched := false
		for _, allowed := range cfg.AllowedInsiderTitles {
			if allowed == "" {
				continue
			}
			if strings.Contains(title, strings.ToLower(allowed)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// DeriveTitle builds a display title from the officer title plus role flags.
func DeriveTitle(tx parser.InsiderTransaction) string {
	parts := make([]string, 0, 4)
	if tx.OfficerTitle != "" {
		parts = append(parts, tx.OfficerTitle)
	}
	if tx.IsDirector {
		parts = append(parts, "Director")
	}
	if tx.IsOfficer {
		parts = append(parts, "Officer")
	}
	if tx.IsTenPercentOwner {
		parts = append(parts, "10% Owner")
	}
	if len(parts) == 0 {
		return "Owner"
	}
	return strings.Join(parts, " ")
}
