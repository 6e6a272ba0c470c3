package parser

import (
	"regexp"
	"strings"
)

// The daily master index opens with an 11-line header before the delimited
// rows start.
const dailyIndexHeaderLines = 11

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// ParseDailyIndex extracts filing references for one form type from the
// fixed-width daily index. Rows without a recognizable accession path are
// legacy noise and are dropped silently.
func ParseDailyIndex(raw []byte, formType string) []FilingReference {
	lines := strings.Split(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n")
	if len(lines) <= dailyIndexHeaderLines {
		return nil
	}

	refs := make([]FilingReference, 0)
	for _, line := range lines[dailyIndexHeaderLines:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		var parts []string
		if strings.Contains(trimmed, "\t") {
			parts = strings.Split(trimmed, "\t")
		} else {
			parts = multiSpaceRe.Split(trimmed, -1)
		}
		if len(parts) < 5 {
			continue
		}

		if strings.TrimSpace(parts[0]) != formType {
			continue
		}
		cik := digitsOnly(parts[2])
		if len(cik) > 10 {
			cik = cik[:10]
		}
		filePath := strings.TrimSpace(parts[4])
		if cik == "" || filePath == "" {
			continue
		}
		match := accessionRe.FindStringSubmatch(filePath)
		if match == nil {
			continue
		}

		refs = append(refs, FilingReference{
			CIK:             leftPadCIK(cik),
			FormType:        formType,
			FiledDate:       strings.TrimSpace(parts[3]),
			AccessionNumber: match[1] + "-" + match[2] + "-" + match[3],
			Link:            filePath,
		})
	}
	return refs
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func leftPadCIK(cik string) string {
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}
