package verification

import (
	"context"
	"log"
	"net/http"
	"time"

	"ffquiz-service/internal/domain"
	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
	"github.com/pkg/errors"
)

const accountPath = "/api/account/"

// Client verifies game ids against the public account-info API.
type Client struct {
	client     *req.Client
	retryCount int
}

type accountInfo struct {
	BasicInfo struct {
		AccountID string `json:"accountId"`
		Nickname  string `json:"nickname"`
		Region    string `json:"region"`
		Level     int    `json:"level"`
	} `json:"basicInfo"`
}

func NewClient(baseURL string, timeout time.Duration, retryCount int) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if retryCount < 0 {
		retryCount = 0
	}
	c := req.C().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal).
		SetCommonHeader("Accept", "application/json")
	return &Client{client: c, retryCount: retryCount}
}

// Verify fetches the account for gameID in region. A non-2xx answer becomes
// an ExternalVerificationError whose reason is shown to the user as is.
func (c *Client) Verify(ctx context.Context, gameID, region string) (domain.VerificationRecord, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("uid", gameID).
		SetQueryParam("region", region).
		SetRetryCount(c.retryCount).
		SetRetryBackoffInterval(10*time.Millisecond, 1*time.Second).
		SetRetryHook(func(resp *req.Response, err error) {
			if err != nil {
				log.Printf("verify %s/%s failed, retrying: %v", region, gameID, err)
			} else {
				log.Printf("verify %s/%s returned %d, retrying", region, gameID, resp.GetStatusCode())
			}
		}).
		SetRetryCondition(func(resp *req.Response, err error) bool {
			return err != nil || resp.GetStatusCode() >= http.StatusInternalServerError
		}).
		Get(accountPath)
	if err != nil {
		return domain.VerificationRecord{}, &domain.ExternalVerificationError{
			Reason: "Failed to verify game ID",
			Err:    errors.Wrapf(err, "get %s", accountPath),
		}
	}
	if !resp.IsSuccessState() {
		return domain.VerificationRecord{}, &domain.ExternalVerificationError{
			Reason: "API verification failed: " + http.StatusText(resp.GetStatusCode()),
		}
	}

	data, err := resp.ToBytes()
	if err != nil {
		return domain.VerificationRecord{}, &domain.ExternalVerificationError{
			Reason: "Failed to verify game ID",
			Err:    errors.Wrap(err, "read account body"),
		}
	}
	var info accountInfo
	if err := json.UnmarshalContext(ctx, data, &info); err != nil {
		return domain.VerificationRecord{}, &domain.ExternalVerificationError{
			Reason: "Failed to verify game ID",
			Err:    errors.Wrapf(err, "decode account body %q", string(data)),
		}
	}
	return domain.VerificationRecord{
		GameID:   gameID,
		Region:   region,
		Nickname: info.BasicInfo.Nickname,
		Raw:      data,
	}, nil
}
