// Package models defines data structures for the market crawler.
package models

// TimeLayout is the wall-clock format stamped on every record, at second
// granularity. It is part of the output format and must stay stable.
const TimeLayout = "2006-01-02 15:04:05"

// Record is the canonical unit of crawled output. Immutable once created;
// two records with the same market URL are considered duplicates.
type Record struct {
	MarketURL string `json:"item_market_url"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	GameName  string `json:"game_name"`
	GameType  string `json:"game_type"`
	FetchTime string `json:"fetch_time"`
}

// Key returns the record's natural identity used for deduplication.
func (r *Record) Key() string {
	return r.MarketURL
}

// Page outcome statuses.
const (
	PageSuccess = "success"
	PageSkipped = "skipped"
)

// PageOutcome reports what happened to a single page of the crawl, so
// callers can audit exactly which pages were lost.
type PageOutcome struct {
	Page   int
	Status string
	Added  int
	Reason string
}

// CrawlResult holds the overall result of one crawl run.
type CrawlResult struct {
	TotalCount   int
	TotalPages   int
	Pages        []PageOutcome
	RecordsAdded int
	StoreTotal   int
	Interrupted  bool
}

// PagesSkipped counts the pages whose data was lost this run.
func (r *CrawlResult) PagesSkipped() int {
	n := 0
	for _, p := range r.Pages {
		if p.Status == PageSkipped {
			n++
		}
	}
	return n
}
