package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/shopspring/decimal"
)

// ParseOwnershipDocument parses the transaction table of an ownership
// disclosure document. A document with no qualifying line items yields an
// empty slice, not an error.
func ParseOwnershipDocument(raw []byte) ([]InsiderTransaction, error) {
	doc, err := parseOwnershipXML(raw)
	if err != nil {
		return nil, err
	}

	ownerName := ""
	if node := xmlquery.FindOne(doc, "//reportingOwner/reportingOwnerId/rptOwnerName"); node != nil {
		ownerName = strings.TrimSpace(node.InnerText())
	}
	relationship := xmlquery.FindOne(doc, "//reportingOwner/reportingOwnerRelationship")
	isDirector := relationshipFlag(relationship, "isDirector")
	isOfficer := relationshipFlag(relationship, "isOfficer")
	isTenPercent := relationshipFlag(relationship, "isTenPercentOwner")
	officerTitle := ""
	if relationship != nil {
		if node := relationship.SelectElement("officerTitle"); node != nil {
			officerTitle = strings.TrimSpace(node.InnerText())
		}
	}

	rows := xmlquery.Find(doc, "//nonDerivativeTable/nonDerivativeTransaction")
	transactions := make([]InsiderTransaction, 0, len(rows))
	for _, row := range rows {
		date := nestedValue(row, "transactionDate")
		shares := nestedValue(row, "transactionAmounts/transactionShares")
		price := nestedValue(row, "transactionAmounts/transactionPricePerShare")
		adCode := nestedValue(row, "transactionAmounts/transactionAcquiredDisposedCode")
		if date == "" || shares == "" {
			continue
		}

		sharesDec, err := decimal.NewFromString(shares)
		if err != nil {
			continue
		}
		priceDec := decimal.Zero
		if price != "" {
			if parsed, err := decimal.NewFromString(price); err == nil {
				priceDec = parsed
			}
		}

		code := CodeDisposition
		if strings.EqualFold(strings.TrimSpace(adCode), "A") {
			code = CodeAcquisition
		}

		transactions = append(transactions, InsiderTransaction{
			OwnerName:         ownerName,
			TransactionDate:   date,
			Code:              code,
			Shares:            sharesDec,
			PricePerShare:     priceDec,
			OfficerTitle:      officerTitle,
			IsDirector:        isDirector,
			IsOfficer:         isOfficer,
			IsTenPercentOwner: isTenPercent,
		})
	}
	return transactions, nil
}

// ExtractIssuerCIK pulls the issuer company key out of a disclosure document.
// The feed attributes some filings to the reporting individual; the issuer
// element recovers the company the trade is against. Returns "" if absent.
func ExtractIssuerCIK(raw []byte) string {
	doc, err := parseOwnershipXML(raw)
	if err != nil {
		return ""
	}
	node := xmlquery.FindOne(doc, "//issuer/issuerCik")
	if node == nil {
		return ""
	}
	cik := digitsOnly(node.InnerText())
	if cik == "" {
		return ""
	}
	return leftPadCIK(cik)
}

// LooksLikeOwnershipDocument is the cheap content check used when probing
// candidate filenames inside an accession directory.
func LooksLikeOwnershipDocument(raw []byte) bool {
	content := string(raw)
	return strings.HasPrefix(strings.TrimSpace(content), "<?xml") ||
		strings.Contains(content, "<ownershipDocument")
}

// Some submissions wrap the payload in an SGML envelope with an <XML> block;
// others are bare XML.
func parseOwnershipXML(raw []byte) (*xmlquery.Node, error) {
	content := raw
	if idx := bytes.Index(raw, []byte("<XML>")); idx >= 0 {
		content = raw[idx+len("<XML>"):]
		if end := bytes.Index(content, []byte("</XML>")); end >= 0 {
			content = content[:end]
		}
	}
	doc, err := xmlquery.Parse(bytes.NewReader(bytes.TrimSpace(content)))
	if err != nil {
		return nil, fmt.Errorf("parsing ownership document: %w", err)
	}
	return doc, nil
}

// nestedValue reads the <value> leaf under a path of elements, tolerating
// documents that omit the wrapper.
func nestedValue(node *xmlquery.Node, path string) string {
	current := node
	for _, step := range strings.Split(path, "/") {
		if current == nil {
			return ""
		}
		current = current.SelectElement(step)
	}
	if current == nil {
		return ""
	}
	if value := current.SelectElement("value"); value != nil {
		return strings.TrimSpace(value.InnerText())
	}
	return strings.TrimSpace(current.InnerText())
}

func relationshipFlag(relationship *xmlquery.Node, name string) bool {
	if relationship == nil {
		return false
	}
	node := relationship.SelectElement(name)
	if node == nil {
		return false
	}
	value := strings.TrimSpace(node.InnerText())
	return value == "1" || strings.EqualFold(value, "true")
}
