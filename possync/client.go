package possync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/utils"
)

type remoteClient struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
	limiter   <-chan time.Time
}

func newRemoteClient() (*remoteClient, error) {
	baseURL := utils.StringFromEnv("POS_API_BASE_URL", "https://api.pitipos.com")
	apiKeyHeader := utils.StringFromEnv("POS_API_KEY_HEADER", "X-API-Key")
	apiKey := strings.TrimSpace(os.Getenv("POS_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("pos api key is empty")
	}

	rateLimitPerMin := utils.IntFromEnv("POS_RATE_LIMIT_PER_MIN", 60)
	if rateLimitPerMin < 1 {
		rateLimitPerMin = 1
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	timeout := time.Duration(utils.IntFromEnv("POS_API_TIMEOUT_SECONDS", 15)) * time.Second

	return &remoteClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: timeout},
		limiter:   time.Tick(interval),
	}, nil
}

type listResponse struct {
	Data  []json.RawMessage `json:"data"`
	Items []json.RawMessage `json:"items"`
}

func (r listResponse) records() []json.RawMessage {
	if len(r.Data) > 0 {
		return r.Data
	}
	return r.Items
}

func (c *remoteClient) getList(ctx context.Context, path string, params url.Values) (listResponse, error) {
	<-c.limiter
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return listResponse{}, err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return listResponse{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return listResponse{}, fmt.Errorf("pos api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return listResponse{}, err
	}
	return parsed, nil
}

// putJSON performs an insert-or-replace by id. The backend tolerates
// duplicate delivery, which is what makes at-least-once replay safe.
func (c *remoteClient) putJSON(ctx context.Context, path string, payload []byte) error {
	<-c.limiter
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pos api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (c *remoteClient) deleteResource(ctx context.Context, path string) error {
	<-c.limiter
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Deleting an already-deleted record is a no-op, not an error.
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pos api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// probe is the cheap read used for schema resolution and drain reachability
// checks: a limit-1 product list under the given path prefix.
func (c *remoteClient) probe(ctx context.Context, pathPrefix string) error {
	params := url.Values{}
	params.Set("limit", "1")
	_, err := c.getList(ctx, pathPrefix+"/products", params)
	return err
}
