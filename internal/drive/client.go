package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"adforge/internal/compositor"
	"adforge/internal/config"
	"adforge/internal/services"
	"adforge/internal/templates"
)

// HTTPDoer describes the HTTP client used by the Drive client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the file-storage REST API that holds template and logo
// assets. It implements templates.Store with all folder lookups scoped
// under the configured template root.
type Client struct {
	baseURL       string
	token         string
	templatesRoot string
	logosRoot     string
	client        HTTPDoer
}

// NewClient builds a Drive client from configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Drive.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return NewClientWith(cfg.Drive.BaseURL, cfg.Drive.AccessToken,
		cfg.Drive.TemplatesFolderID, cfg.Drive.LogosFolderID,
		&http.Client{Timeout: timeout})
}

// NewClientWith constructs a client with an explicit HTTP doer, used by
// tests.
func NewClientWith(baseURL, token, templatesRoot, logosRoot string, doer HTTPDoer) *Client {
	return &Client{
		baseURL:       strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:         strings.TrimSpace(token),
		templatesRoot: templatesRoot,
		logosRoot:     logosRoot,
		client:        doer,
	}
}

type fileResource struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

type fileList struct {
	Files []fileResource `json:"files"`
}

// FindFolder returns the id of the folder with the exact name directly
// under the template root.
func (c *Client) FindFolder(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf(
		"name = '%s' and '%s' in parents and mimeType = 'application/vnd.google-apps.folder' and trashed = false",
		escapeQueryValue(name), c.templatesRoot)
	list, err := c.listFiles(ctx, query, 1)
	if err != nil {
		return "", err
	}
	if len(list.Files) == 0 {
		return "", services.Wrap(services.ErrNotFound, "drive", "find folder", name, nil)
	}
	return list.Files[0].ID, nil
}

// ListImages returns the eligible image assets directly under the folder.
// Children with any other mime type are excluded.
func (c *Client) ListImages(ctx context.Context, folderID string) ([]templates.Asset, error) {
	query := fmt.Sprintf(
		"'%s' in parents and (mimeType = 'image/png' or mimeType = 'image/gif') and trashed = false",
		folderID)
	list, err := c.listFiles(ctx, query, 1000)
	if err != nil {
		return nil, err
	}
	assets := make([]templates.Asset, 0, len(list.Files))
	for _, f := range list.Files {
		kind, ok := compositor.KindForMIME(f.MimeType)
		if !ok {
			continue
		}
		assets = append(assets, templates.Asset{ID: f.ID, Name: f.Name, Kind: kind})
	}
	return assets, nil
}

// Fetch downloads the raw bytes of one file.
func (c *Client) Fetch(ctx context.Context, id string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/files/%s?alt=media", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrPlatform, "drive", "download", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, services.Wrap(services.ErrNotFound, "drive", "download", id, nil)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrPlatform, "drive", "download",
			fmt.Sprintf("%s returned %d", id, resp.StatusCode), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrPlatform, "drive", "download", id, err)
	}
	return data, nil
}

// FindLogo returns the file id of the site logo, matched by exact
// case-insensitive filename <site>.png under the logo root.
func (c *Client) FindLogo(ctx context.Context, site string) (string, error) {
	site = strings.TrimSpace(site)
	query := fmt.Sprintf(
		"name contains '%s' and name contains '.png' and '%s' in parents and trashed = false",
		escapeQueryValue(site), c.logosRoot)
	list, err := c.listFiles(ctx, query, 10)
	if err != nil {
		return "", err
	}
	wanted := strings.ToLower(site + ".png")
	for _, f := range list.Files {
		if strings.ToLower(f.Name) == wanted {
			return f.ID, nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, "drive", "find logo", site+".png", nil)
}

func (c *Client) listFiles(ctx context.Context, query string, pageSize int) (*fileList, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("fields", "files(id, name, mimeType)")
	params.Set("pageSize", fmt.Sprintf("%d", pageSize))

	endpoint := fmt.Sprintf("%s/files?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrPlatform, "drive", "list files", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrPlatform, "drive", "list files",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var list fileList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, services.Wrap(services.ErrPlatform, "drive", "list files", "decode response", err)
	}
	return &list, nil
}

func escapeQueryValue(v string) string {
	return strings.ReplaceAll(v, "'", `\'`)
}

var _ templates.Store = (*Client)(nil)
