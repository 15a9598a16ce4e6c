package visual

import (
	"context"
)

// MockClient serves canned annotations keyed by image URL, for tests.
// URLs missing from SafeResults return a nil annotation (the "call succeeded,
// nothing returned" case); set SafeErr/LabelErr to simulate outages.
type MockClient struct {
	SafeResults  map[string]*SafeSearchResult
	LabelResults map[string][]Label
	SafeErr      error
	LabelErr     error
}

func NewMockClient() *MockClient {
	return &MockClient{
		SafeResults:  make(map[string]*SafeSearchResult),
		LabelResults: make(map[string][]Label),
	}
}

func (m *MockClient) SafeSearch(ctx context.Context, url string) (*SafeSearchResult, error) {
	if m.SafeErr != nil {
		return nil, m.SafeErr
	}
	return m.SafeResults[url], nil
}

func (m *MockClient) DetectLabels(ctx context.Context, url string) ([]Label, error) {
	if m.LabelErr != nil {
		return nil, m.LabelErr
	}
	return m.LabelResults[url], nil
}
