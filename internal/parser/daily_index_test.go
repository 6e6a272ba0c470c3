package parser

import (
	"strings"
	"testing"
)

func buildIndex(rows ...string) []byte {
	header := []string{
		"Description:           Daily Index of EDGAR Dissemination Feed",
		"Last Data Received:    June 3, 2024",
		"Comments:              webmaster@sec.gov",
		"Anonymous FTP:         ftp://ftp.sec.gov/edgar/",
		"",
		"",
		"",
		"Form Type   Company Name   CIK   Date Filed   File Name",
		"---------------------------------------------------------",
		"",
		"",
	}
	return []byte(strings.Join(append(header, rows...), "\n"))
}

func TestParseDailyIndex(t *testing.T) {
	raw := buildIndex(
		"4           APPLE INC                 320193   20240603   edgar/data/320193/0000320193-24-000123.txt",
		"10-K        SOMECO                    111222   20240603   edgar/data/111222/0000111222-24-000001.txt",
		"4           BROKEN ROW MISSING PATH   999999   20240603",
		"4           NO ACCESSION HERE         888888   20240603   edgar/data/888888/readme.txt",
	)
	refs := ParseDailyIndex(raw, "4")
	if len(refs) != 1 {
		t.Fatalf("got %d refs, want 1", len(refs))
	}
	ref := refs[0]
	if ref.CIK != "0000320193" {
		t.Fatalf("cik = %q", ref.CIK)
	}
	if ref.AccessionNumber != "0000320193-24-000123" {
		t.Fatalf("accession = %q", ref.AccessionNumber)
	}
	if ref.FormType != "4" {
		t.Fatalf("form = %q", ref.FormType)
	}
	if ref.FiledDate != "20240603" {
		t.Fatalf("filed date = %q", ref.FiledDate)
	}
}

func TestParseDailyIndexTabDelimited(t *testing.T) {
	raw := buildIndex("4\tAPPLE INC\t320193\t20240603\tedgar/data/320193/0000320193-24-000123.txt")
	refs := ParseDailyIndex(raw, "4")
	if len(refs) != 1 {
		t.Fatalf("got %d refs, want 1", len(refs))
	}
	if refs[0].AccessionNumber != "0000320193-24-000123" {
		t.Fatalf("accession = %q", refs[0].AccessionNumber)
	}
}

func TestParseDailyIndexHeaderOnly(t *testing.T) {
	if refs := ParseDailyIndex(buildIndex(), "4"); len(refs) != 0 {
		t.Fatalf("got %d refs, want 0", len(refs))
	}
}
