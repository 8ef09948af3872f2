// Package gbp holds the narrow Google Business Profile client used by
// billing: given a connected account, report how many locations it manages.
// Profile counts drive per-profile pricing; nothing else of the GBP surface
// is consumed here.
package gbp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/localpulse/localpulse/internal/config"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/logger"

	"github.com/hashicorp/go-retryablehttp"
)

// LocationCounter reports the number of business locations under one
// connected GBP account.
type LocationCounter interface {
	CountLocations(ctx context.Context, accountID string) (int, error)
}

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *retryablehttp.Client
	logger      *logger.Logger
}

func NewClient(cfg *config.Configuration, log *logger.Logger) LocationCounter {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.HTTPClient.Timeout = 15 * time.Second
	httpClient.Logger = log.GetRetryableHTTPLogger()

	return &Client{
		baseURL:     cfg.GBP.BaseURL,
		accessToken: cfg.GBP.AccessToken,
		httpClient:  httpClient,
		logger:      log,
	}
}

type locationListResponse struct {
	TotalSize int `json:"totalSize"`
}

// CountLocations asks the Business Information API for the location total of
// one account. A single page with readMask=name is enough; the API reports
// the full count in totalSize.
func (c *Client) CountLocations(ctx context.Context, accountID string) (int, error) {
	url := fmt.Sprintf("%s/accounts/%s/locations?readMask=name&pageSize=1", c.baseURL, accountID)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, ierr.WithError(err).Mark(ierr.ErrInternal)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorw("failed to list GBP locations", "error", err, "account_id", accountID)
		return 0, ierr.WithError(err).
			WithHint("Unable to reach the Business Profile API").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Errorw("GBP API error",
			"status", resp.StatusCode,
			"account_id", accountID)
		return 0, ierr.NewErrorf("GBP API returned status %d", resp.StatusCode).
			WithHint("Unable to count business locations").
			Mark(ierr.ErrHTTPClient)
	}

	var list locationListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Unexpected Business Profile API response").
			Mark(ierr.ErrHTTPClient)
	}

	return list.TotalSize, nil
}
