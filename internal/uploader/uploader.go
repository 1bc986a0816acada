package uploader

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"adforge/internal/compositor"
	"adforge/internal/creative"
	"adforge/internal/dispatch"
	"adforge/internal/services"
)

// ImageAd is one platform ad-creation request.
type ImageAd struct {
	AccountID  string
	AdGroupID  string
	Name       string
	Data       []byte
	Kind       compositor.Kind
	FinalURL   string
	DisplayURL string
}

// Platform is the narrow advertising-platform surface the coordinator
// needs: one query and one mutation. Implementations must not throttle
// themselves; every call is routed through the shared request budget here.
type Platform interface {
	// EnabledFinalURLs returns the final URLs of enabled ads in the ad
	// group, in platform order.
	EnabledFinalURLs(ctx context.Context, accountID, adGroupID string) ([]string, error)
	// CreateImageAd creates one enabled image ad and returns its resource
	// name.
	CreateImageAd(ctx context.Context, ad ImageAd) (string, error)
}

// Coordinator resolves destination URLs and submits finished creatives to
// the platform.
type Coordinator struct {
	platform Platform
	budget   *dispatch.Budget
	logger   *slog.Logger
}

// NewCoordinator wires a Coordinator over the platform and request budget.
func NewCoordinator(platform Platform, budget *dispatch.Budget, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{platform: platform, budget: budget, logger: logger}
}

// ResolveFinalURL returns the first final URL among the ad group's enabled
// ads, or "" when none exist or the query fails. The coordinator never
// invents a URL; callers must obtain one from the operator when this
// returns empty. The error is non-nil only when the platform rejected
// authorization for the account.
func (c *Coordinator) ResolveFinalURL(ctx context.Context, accountID, adGroupID string) (string, error) {
	urls, err := dispatch.CallErr(ctx, c.budget, "query enabled ads", func(ctx context.Context) ([]string, error) {
		return c.platform.EnabledFinalURLs(ctx, accountID, adGroupID)
	})
	if errors.Is(err, services.ErrUnauthorized) {
		return "", err
	}
	if err != nil {
		return "", nil
	}
	for _, url := range urls {
		if strings.TrimSpace(url) != "" {
			return url, nil
		}
	}
	return "", nil
}

// Upload submits each creative as an independent ad creation. One failure
// is logged and does not abort the remaining creatives, except an
// authorization rejection, which aborts the batch and is returned so the
// caller can block the account. The successfully created creatives are
// returned either way.
func (c *Coordinator) Upload(ctx context.Context, accountID, adGroupID string, files []creative.File, finalURL string) ([]creative.File, error) {
	display := stripScheme(finalURL)
	var uploaded []creative.File
	for _, file := range files {
		data, err := os.ReadFile(file.Path)
		if err != nil {
			c.logger.Error("read creative", "path", file.Path, "error", err)
			continue
		}
		ad := ImageAd{
			AccountID:  accountID,
			AdGroupID:  adGroupID,
			Name:       file.Name,
			Data:       data,
			Kind:       file.Kind,
			FinalURL:   finalURL,
			DisplayURL: display,
		}
		resource, err := dispatch.CallErr(ctx, c.budget, "create image ad", func(ctx context.Context) (string, error) {
			return c.platform.CreateImageAd(ctx, ad)
		})
		if errors.Is(err, services.ErrUnauthorized) {
			return uploaded, err
		}
		if err != nil {
			c.logger.Warn("creative upload failed", "creative", file.Name)
			continue
		}
		uploaded = append(uploaded, file)
		c.logger.Info("creative uploaded", "creative", file.Name, "resource", resource)
	}
	return uploaded, nil
}

// stripScheme derives the display URL from the final URL by dropping the
// scheme prefix.
func stripScheme(url string) string {
	if idx := strings.Index(url, "://"); idx >= 0 {
		return url[idx+len("://"):]
	}
	return url
}
