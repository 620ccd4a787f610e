package web_search

import (
	"context"
	"errors"

	"github.com/hummingbird-labs/hummingbird/tools/web_search/models"
	"github.com/hummingbird-labs/hummingbird/tools/web_search/serper"
	"github.com/hummingbird-labs/hummingbird/tools/web_search/tavily"
)

// WebSearcher finds web results for a query.
type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	TavilyProvider Provider = "tavily"
	SerperProvider Provider = "serper"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

func NewWebSearcher(provider Provider, apiKey string) (WebSearcher, error) {
	switch provider {
	case TavilyProvider:
		return tavily.Search{ApiKey: apiKey}, nil
	case SerperProvider:
		return serper.Search{ApiKey: apiKey}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
