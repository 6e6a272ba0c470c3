package parser

import "github.com/shopspring/decimal"

// FilingReference identifies one filing submission in the archive. The
// accession number is the natural dedup key within a polling session.
type FilingReference struct {
	CIK             string
	FormType        string
	FiledDate       string
	AccessionNumber string
	Link            string
}

// Transaction codes as reported by the disclosure document.
const (
	CodeAcquisition = "acquisition"
	CodeDisposition = "disposition"
)

// InsiderTransaction is one reported line item from an ownership-disclosure
// document.
type InsiderTransaction struct {
	OwnerName         string
	TransactionDate   string
	Code              string
	Shares            decimal.Decimal
	PricePerShare     decimal.Decimal
	OfficerTitle      string
	IsDirector        bool
	IsOfficer         bool
	IsTenPercentOwner bool
}
