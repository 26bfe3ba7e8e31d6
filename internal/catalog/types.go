package catalog

// Record is one catalog entry for a downloadable archive. SizeBytes is nil
// when the listing carried no parseable size; it serializes as null rather
// than a fabricated zero.
type Record struct {
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	SizeBytes *int64 `json:"size_bytes"`
}

// WorkUnit is one year directory to crawl, derived from a
// (variable, frequency, year) triple. Units are independent; each is
// consumed exactly once per run.
type WorkUnit struct {
	Variable  string
	Frequency string
	Year      string
	DirURL    string
}
