package edgar

// SubmissionIndex is the per-company submission index. Filing attributes are
// column-oriented: index i across the slices describes one filing.
type SubmissionIndex struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings struct {
		Recent RecentFilings `json:"recent"`
	} `json:"filings"`
}

type RecentFilings struct {
	AccessionNumbers []string `json:"accessionNumber"`
	Forms            []string `json:"form"`
	FilingDates      []string `json:"filingDate"`
	PrimaryDocuments []string `json:"primaryDocument"`
}
