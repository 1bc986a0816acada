package ads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"adforge/internal/compositor"
	"adforge/internal/config"
	"adforge/internal/services"
	"adforge/internal/uploader"
)

// HTTPDoer describes the HTTP client used by the ads client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the advertising-platform REST client. It implements
// uploader.Platform with one search query and one mutate call; rate
// limiting is the caller's concern.
type Client struct {
	baseURL         string
	developerToken  string
	accessToken     string
	loginCustomerID string
	client          HTTPDoer
}

// NewClient builds an ads client from configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Ads.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return NewClientWith(cfg.Ads.BaseURL, cfg.Ads.DeveloperToken, cfg.Ads.AccessToken,
		cfg.Ads.LoginCustomerID, &http.Client{Timeout: timeout})
}

// NewClientWith constructs a client with an explicit HTTP doer, used by
// tests.
func NewClientWith(baseURL, developerToken, accessToken, loginCustomerID string, doer HTTPDoer) *Client {
	return &Client{
		baseURL:         strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		developerToken:  strings.TrimSpace(developerToken),
		accessToken:     strings.TrimSpace(accessToken),
		loginCustomerID: strings.TrimSpace(loginCustomerID),
		client:          doer,
	}
}

// EnabledFinalURLs queries the final URLs of every enabled ad in the ad
// group, in platform order.
func (c *Client) EnabledFinalURLs(ctx context.Context, accountID, adGroupID string) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT ad_group_ad.ad.final_urls FROM ad_group_ad "+
			"WHERE ad_group_ad.ad_group = 'customers/%s/adGroups/%s' "+
			"AND ad_group_ad.status = 'ENABLED'",
		accountID, adGroupID)

	endpoint := fmt.Sprintf("%s/customers/%s/googleAds:searchStream", c.baseURL, accountID)
	body, err := c.post(ctx, endpoint, map[string]string{"query": query})
	if err != nil {
		return nil, err
	}

	var batches []struct {
		Results []struct {
			AdGroupAd struct {
				Ad struct {
					FinalURLs []string `json:"finalUrls"`
				} `json:"ad"`
			} `json:"adGroupAd"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &batches); err != nil {
		return nil, services.Wrap(services.ErrPlatform, "ads", "query enabled ads", "decode response", err)
	}

	var urls []string
	for _, batch := range batches {
		for _, result := range batch.Results {
			urls = append(urls, result.AdGroupAd.Ad.FinalURLs...)
		}
	}
	return urls, nil
}

// CreateImageAd creates one enabled image ad and returns its resource
// name.
func (c *Client) CreateImageAd(ctx context.Context, ad uploader.ImageAd) (string, error) {
	mimeType := "IMAGE_PNG"
	if ad.Kind == compositor.KindAnimated {
		mimeType = "IMAGE_GIF"
	}
	operation := map[string]any{
		"operations": []map[string]any{{
			"create": map[string]any{
				"adGroup": fmt.Sprintf("customers/%s/adGroups/%s", ad.AccountID, ad.AdGroupID),
				"status":  "ENABLED",
				"ad": map[string]any{
					"name":       ad.Name,
					"finalUrls":  []string{ad.FinalURL},
					"displayUrl": ad.DisplayURL,
					"imageAd": map[string]any{
						"data":     ad.Data,
						"mimeType": mimeType,
					},
				},
			},
		}},
	}

	endpoint := fmt.Sprintf("%s/customers/%s/adGroupAds:mutate", c.baseURL, ad.AccountID)
	body, err := c.post(ctx, endpoint, operation)
	if err != nil {
		return "", err
	}

	var response struct {
		Results []struct {
			ResourceName string `json:"resourceName"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", services.Wrap(services.ErrPlatform, "ads", "create image ad", "decode response", err)
	}
	if len(response.Results) == 0 {
		return "", services.Wrap(services.ErrPlatform, "ads", "create image ad",
			fmt.Sprintf("%s: empty mutate response", ad.Name), nil)
	}
	return response.Results[0].ResourceName, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("developer-token", c.developerToken)
	if c.loginCustomerID != "" {
		req.Header.Set("login-customer-id", c.loginCustomerID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrPlatform, "ads", "request", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrPlatform, "ads", "request", "read response", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, services.Wrap(services.ErrUnauthorized, "ads", "request",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrPlatform, "ads", "request",
			fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(body, 200)), nil)
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

var _ uploader.Platform = (*Client)(nil)
