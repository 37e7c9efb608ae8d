package models

// ListingRecord is one listing card as shown on a search page.
// Price and Address are kept exactly as displayed.
type ListingRecord struct {
	Title   string `json:"title"`
	Price   string `json:"price"`
	Address string `json:"address"`
	Link    string `json:"link"`
}

// PersistedListing is a ListingRecord plus the id assigned when it was first stored.
type PersistedListing struct {
	ID int64 `json:"id"`
	ListingRecord
}

type TrackedURL struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

type PageJob struct {
	URL        string
	PageNumber int
}

type PageResult struct {
	PageNumber int
	URL        string
	Records    []ListingRecord
	Stored     int
	Err        error
}

// BulkResult is everything a bulk run produced, in page order.
type BulkResult struct {
	Rows   []ListingRecord
	Pages  []PageResult
	Stored int
}

type ParseResult struct {
	Status      string `json:"status"`
	ParsedFlats int    `json:"parsed_flats"`
	URL         string `json:"url"`
}
