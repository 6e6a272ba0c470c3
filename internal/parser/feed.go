package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
)

var (
	accessionRe = regexp.MustCompile(`(\d{10})-?(\d{2})-?(\d{6})`)
	feedCIKRe   = regexp.MustCompile(`/data/(\d+)/`)
)

// ParseFeed extracts filing references from the latest-filings Atom feed.
// Entries arrive newest first; callers wanting oldest-first order reverse
// the slice.
func ParseFeed(raw []byte) ([]FilingReference, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	entries := xmlquery.Find(doc, "//entry")
	refs := make([]FilingReference, 0, len(entries))
	for _, entry := range entries {
		ref := FilingReference{}

		if id := entry.SelectElement("id"); id != nil {
			if match := accessionRe.FindStringSubmatch(id.InnerText()); match != nil {
				ref.AccessionNumber = match[1] + "-" + match[2] + "-" + match[3]
			}
		}
		if link := entry.SelectElement("link"); link != nil {
			ref.Link = link.SelectAttr("href")
			if match := feedCIKRe.FindStringSubmatch(ref.Link); match != nil {
				ref.CIK = fmt.Sprintf("%010s", match[1])
			}
		}
		if ref.AccessionNumber == "" && ref.Link != "" {
			if match := accessionRe.FindStringSubmatch(ref.Link); match != nil {
				ref.AccessionNumber = match[1] + "-" + match[2] + "-" + match[3]
			}
		}
		if category := entry.SelectElement("category"); category != nil {
			ref.FormType = category.SelectAttr("term")
		}
		if updated := entry.SelectElement("updated"); updated != nil {
			value := strings.TrimSpace(updated.InnerText())
			if len(value) >= 10 {
				ref.FiledDate = value[:10]
			}
		}

		if ref.AccessionNumber == "" || ref.CIK == "" {
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
