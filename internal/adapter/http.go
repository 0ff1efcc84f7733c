package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/acadjobs/internal/model"
)

// userAgent identifies the aggregator to source sites.
const userAgent = "acadjobs/1.0 (+https://github.com/amishk599/acadjobs)"

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// do sends req and returns the response body of a 200. Any other status is
// returned as a *model.HTTPError so the retry decorator can classify it.
func do(client *http.Client, req *http.Request, label string) ([]byte, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%s: unexpected status %d", label, resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading body: %w", label, err)
	}
	return body, nil
}

// getJSON GETs url and decodes the JSON body into out.
func getJSON(ctx context.Context, client *http.Client, url, label string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := do(client, req, label)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decoding: %w", label, err)
	}
	return nil
}
