package testsupport

import (
	"context"
	"fmt"

	"adforge/internal/services"
	"adforge/internal/uploader"
)

// AdsPlatform is an in-memory uploader.Platform.
type AdsPlatform struct {
	FinalURLs map[string][]string // "account/adgroup" -> urls
	QueryErr  error
	CreateErr map[string]error // ad name -> forced error
	Created   []uploader.ImageAd
}

// NewAdsPlatform returns an empty in-memory platform.
func NewAdsPlatform() *AdsPlatform {
	return &AdsPlatform{
		FinalURLs: map[string][]string{},
		CreateErr: map[string]error{},
	}
}

// AdGroupKey builds the lookup key used by FinalURLs.
func AdGroupKey(accountID, adGroupID string) string {
	return accountID + "/" + adGroupID
}

func (p *AdsPlatform) EnabledFinalURLs(_ context.Context, accountID, adGroupID string) ([]string, error) {
	if p.QueryErr != nil {
		return nil, p.QueryErr
	}
	return p.FinalURLs[AdGroupKey(accountID, adGroupID)], nil
}

func (p *AdsPlatform) CreateImageAd(_ context.Context, ad uploader.ImageAd) (string, error) {
	if err, ok := p.CreateErr[ad.Name]; ok {
		return "", err
	}
	p.Created = append(p.Created, ad)
	return fmt.Sprintf("customers/%s/adGroupAds/%s~%d", ad.AccountID, ad.AdGroupID, len(p.Created)), nil
}

var _ uploader.Platform = (*AdsPlatform)(nil)

// NotFoundErr builds a services.ErrNotFound for fixtures.
func NotFoundErr(what string) error {
	return services.Wrap(services.ErrNotFound, "teststore", "lookup", what, nil)
}
