package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ValentinKolb/tfstated/api/common"
)

var Logger = common.GetLogger("client")

// IBackendClient is the client-side interface of the state backend protocol.
type IBackendClient interface {
	// GetState fetches the current state document.
	// Returns found=false if no state exists.
	GetState() (doc []byte, found bool, err error)

	// PutState uploads a state document. The lock ID is optional and sent
	// both as the Lock-ID header and the ID query parameter (Terraform's
	// http backend uses the query parameter).
	PutState(doc []byte, lockID string) error

	// DeleteState removes the state document. The lock ID is optional.
	DeleteState(lockID string) error

	// Lock tries to acquire the state lock with the given record.
	// Returns acquired=false and the holder's record if the lock is held by
	// someone else.
	Lock(record []byte) (acquired bool, holder []byte, err error)

	// Unlock releases the state lock with the given record. A mismatching
	// ID is returned as an error.
	Unlock(record []byte) error

	// Health fetches the backend health status.
	Health() (*common.HealthStatus, error)
}

// NewBackendClient creates a client for the given configuration.
func NewBackendClient(config common.ClientConfig) IBackendClient {
	endpoint := strings.TrimRight(config.Endpoint, "/")
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}

	return &httpClientImpl{
		config:   config,
		endpoint: endpoint,
		http: &http.Client{
			Timeout: time.Duration(config.TimeoutSecond) * time.Second,
		},
	}
}

type httpClientImpl struct {
	config   common.ClientConfig
	endpoint string
	http     *http.Client
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IBackendClient above)
// --------------------------------------------------------------------------

func (c *httpClientImpl) GetState() ([]byte, bool, error) {
	resp, err := c.do(http.MethodGet, "/tfstate", nil, "")
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		doc, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read state: %w", err)
		}
		return doc, true, nil
	case http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, unexpectedStatus(resp)
	}
}

func (c *httpClientImpl) PutState(doc []byte, lockID string) error {
	resp, err := c.do(http.MethodPost, "/tfstate", doc, lockID)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unexpectedStatus(resp)
	}
	return nil
}

func (c *httpClientImpl) DeleteState(lockID string) error {
	resp, err := c.do(http.MethodDelete, "/tfstate", nil, lockID)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unexpectedStatus(resp)
	}
	return nil
}

func (c *httpClientImpl) Lock(record []byte) (bool, []byte, error) {
	resp, err := c.do("LOCK", "/lock", record, "")
	if err != nil {
		return false, nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil, nil
	case http.StatusLocked:
		holder, err := io.ReadAll(resp.Body)
		if err != nil {
			return false, nil, fmt.Errorf("lock is held, failed to read holder record: %w", err)
		}
		return false, holder, nil
	default:
		return false, nil, unexpectedStatus(resp)
	}
}

func (c *httpClientImpl) Unlock(record []byte) error {
	resp, err := c.do("UNLOCK", "/lock", record, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unexpectedStatus(resp)
	}
	return nil
}

func (c *httpClientImpl) Health() (*common.HealthStatus, error) {
	resp, err := c.do(http.MethodGet, "/health", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, unexpectedStatus(resp)
	}

	var health common.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode health status: %w", err)
	}
	return &health, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// do sends one request, retrying transport failures with exponential backoff.
// HTTP status codes are never retried; they are protocol results.
func (c *httpClientImpl) do(method, path string, body []byte, lockID string) (*http.Response, error) {
	reqURL := c.endpoint + path
	if lockID != "" {
		// The lock ID is caller-supplied and must be query-escaped
		reqURL += "?" + url.Values{"ID": {lockID}}.Encode()
	}

	send := func() (*http.Response, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequest(method, reqURL, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s request: %w", method, err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if lockID != "" {
			req.Header.Set("Lock-ID", lockID)
		}

		return c.http.Do(req)
	}

	// We always try at least once, and up to RetryCount times
	maxRetries := c.config.RetryCount
	if maxRetries < 1 {
		maxRetries = 1
	}

	// Initial backoff duration in milliseconds
	backoffMs := 50

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		resp, err := send()
		if err == nil {
			return resp, nil
		}

		lastErr = err
		Logger.Debug("request attempt failed", "attempt", i+1, "max", maxRetries, "error", err)

		if i < maxRetries-1 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, lastErr)
}

// unexpectedStatus converts a non-success response into an error, using the
// server's JSON error body when present
func unexpectedStatus(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errBody common.ErrorBody
	if err := json.Unmarshal(body, &errBody); err == nil && errBody.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, errBody.Error)
	}
	return fmt.Errorf("unexpected HTTP response code %d", resp.StatusCode)
}
