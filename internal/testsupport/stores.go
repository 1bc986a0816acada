package testsupport

import (
	"context"
	"fmt"

	"adforge/internal/services"
	"adforge/internal/templates"
)

// TemplateStore is an in-memory templates.Store.
type TemplateStore struct {
	Folders  map[string]string            // folder name -> folder id
	Images   map[string][]templates.Asset // folder id -> assets
	Blobs    map[string][]byte            // asset id -> bytes
	FetchErr map[string]error             // asset id -> forced error

	FetchCalls []string
}

// NewTemplateStore returns an empty in-memory store.
func NewTemplateStore() *TemplateStore {
	return &TemplateStore{
		Folders:  map[string]string{},
		Images:   map[string][]templates.Asset{},
		Blobs:    map[string][]byte{},
		FetchErr: map[string]error{},
	}
}

// AddFolder registers a folder and its assets.
func (s *TemplateStore) AddFolder(name, id string, assets ...templates.Asset) {
	s.Folders[name] = id
	s.Images[id] = assets
}

func (s *TemplateStore) FindFolder(_ context.Context, name string) (string, error) {
	if id, ok := s.Folders[name]; ok {
		return id, nil
	}
	return "", services.Wrap(services.ErrNotFound, "teststore", "find folder", name, nil)
}

func (s *TemplateStore) ListImages(_ context.Context, folderID string) ([]templates.Asset, error) {
	return s.Images[folderID], nil
}

func (s *TemplateStore) Fetch(_ context.Context, id string) ([]byte, error) {
	s.FetchCalls = append(s.FetchCalls, id)
	if err, ok := s.FetchErr[id]; ok {
		return nil, err
	}
	blob, ok := s.Blobs[id]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "teststore", "fetch", fmt.Sprintf("asset %s", id), nil)
	}
	return blob, nil
}
