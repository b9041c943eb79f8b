package crawler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// BuildParams translates an opaque filter descriptor into the concrete
// parameter set the search endpoint expects. Fixed defaults come first,
// recognized category filters from the descriptor override them (keeping
// every value of a repeated key), and start is always forced to the
// caller-supplied offset. Unrecognized keys are ignored.
func BuildParams(descriptor string, appID, currency, start, count int) url.Values {
	params := url.Values{}
	params.Set("query", "")
	params.Set("search_descriptions", "0")
	params.Set("sort_column", "price")
	params.Set("sort_dir", "asc")
	params.Set("appid", strconv.Itoa(appID))
	params.Set("currency", strconv.Itoa(currency))
	params.Set("norender", "1")
	params.Set("count", strconv.Itoa(count))

	prefix := fmt.Sprintf("category_%d_", appID)
	for _, part := range strings.Split(strings.TrimPrefix(descriptor, "?"), "&") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		if strings.HasPrefix(decodedKey, prefix) && strings.HasSuffix(decodedKey, "[]") {
			params.Add(decodedKey, decodedValue)
		}
	}

	params.Set("start", strconv.Itoa(start))
	return params
}

// TotalPages returns how many batch-sized pages cover totalCount items.
func TotalPages(totalCount, batchSize int) int {
	if totalCount <= 0 {
		return 0
	}
	return (totalCount + batchSize - 1) / batchSize
}

// PageRange returns the raw offset range page covers. The start advances by
// full batches even past totalCount; only the end is clamped.
func PageRange(page, batchSize, totalCount int) (start, end int) {
	start = page * batchSize
	end = start + batchSize
	if end > totalCount {
		end = totalCount
	}
	return start, end
}
