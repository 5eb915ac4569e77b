package advclient

import "fmt"

// HTTPError is a 5xx advertiser response. It is retryable.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "advertiser http error"
	}
	if e.Body == "" {
		return fmt.Sprintf("advertiser http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("advertiser http error: status=%d body=%s", e.StatusCode, e.Body)
}
