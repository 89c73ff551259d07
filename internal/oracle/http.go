package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// HTTPValidator asks an external dictionary service. Transient failures are
// retried with exponential backoff; whatever survives the retries is returned
// as an error for the cache layer to fail closed on.
type HTTPValidator struct {
	baseURL string
	client  *http.Client
}

func NewHTTP(baseURL string, timeout time.Duration) *HTTPValidator {
	return &HTTPValidator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (v *HTTPValidator) Validate(ctx context.Context, word string) (bool, error) {
	op := func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			v.baseURL+"?word="+url.QueryEscape(word), nil)
		if err != nil {
			return false, backoff.Permanent(err)
		}
		resp, err := v.client.Do(req)
		if err != nil {
			return false, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode >= 500:
			return false, fmt.Errorf("oracle returned %d", resp.StatusCode)
		default:
			return false, backoff.Permanent(fmt.Errorf("oracle returned %d", resp.StatusCode))
		}

		var body struct {
			Valid bool `json:"valid"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return false, err
		}
		return body.Valid, nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
	)
}
