package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client talks to the remote ledger service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

var _ Adapter = (*Client)(nil)

func (c *Client) CreateObligation(ctx context.Context, req PostingRequest) (*Posting, error) {
	var posting Posting
	if err := c.post(ctx, "/api/v1/postings", req, &posting); err != nil {
		return nil, err
	}

	c.log.Debug("ledger posting created",
		zap.String("reference_id", req.ReferenceID),
		zap.String("posting_id", posting.ID),
	)
	return &posting, nil
}

func (c *Client) VoidPosting(ctx context.Context, postingID, reason, userID string) error {
	body := map[string]string{"reason": reason, "user_id": userID}
	return c.post(ctx, "/api/v1/postings/"+postingID+"/void", body, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode ledger request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build ledger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Code: "CONNECTIVITY", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		lerr := &Error{}
		if decodeErr := json.NewDecoder(resp.Body).Decode(lerr); decodeErr != nil || lerr.Message == "" {
			lerr.Code = "HTTP_ERROR"
			lerr.Message = fmt.Sprintf("ledger returned status %d", resp.StatusCode)
		}
		return lerr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode ledger response: %w", err)
		}
	}

	return nil
}
