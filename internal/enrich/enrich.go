package enrich

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hummingbird-labs/hummingbird/internal/capability"
	"github.com/hummingbird-labs/hummingbird/internal/logocache"
	"github.com/hummingbird-labs/hummingbird/models"
	searchmodels "github.com/hummingbird-labs/hummingbird/tools/web_search/models"
)

var (
	imageURLPattern   = regexp.MustCompile(`https?://[^\s<>"')]+\.(?:png|jpe?g|svg)`)
	generalURLPattern = regexp.MustCompile(`https?://[^\s<>"')]+`)
)

// Validator reports whether a candidate logo URL is reachable.
type Validator func(ctx context.Context, url string) bool

// Enricher fills logo URLs into a recommendation set, preferring the durable
// cache and falling back to a search plus extraction routine. Enrichment is
// best-effort throughout: an item that cannot be resolved keeps an empty (or
// default) logo, and never fails the batch.
type Enricher struct {
	cache    *logocache.Cache
	registry *capability.Registry
	validate Validator
	logger   *log.Logger
}

// Option configures enricher behaviour.
type Option func(*Enricher)

// WithValidator overrides the reachability check.
func WithValidator(v Validator) Option {
	return func(e *Enricher) { e.validate = v }
}

// New creates an Enricher backed by the cache and the registry's search
// capability.
func New(cache *logocache.Cache, registry *capability.Registry, opts ...Option) *Enricher {
	e := &Enricher{
		cache:    cache,
		registry: registry,
		validate: headValidator(&http.Client{Timeout: 5 * time.Second}),
		logger:   log.New(log.Writer(), "[ENRICH] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich populates the Logo field of every recommendation in place.
func (e *Enricher) Enrich(ctx context.Context, set *models.RecommendationSet) {
	if set == nil {
		return
	}
	for i := range set.Recommendations {
		rec := &set.Recommendations[i]
		if rec.ToolName == "" {
			continue
		}
		rec.Logo = e.logoFor(ctx, rec.ToolName)
	}
}

// logoFor resolves one product name to a logo URL, or "" when none is found.
func (e *Enricher) logoFor(ctx context.Context, name string) string {
	if url, ok := e.cache.Get(name); ok {
		e.logger.Printf("cache hit for %q", name)
		return url
	}

	query := fmt.Sprintf("The product is %s. Find the image URL of the official product logo ending with png, jpg, or svg.", name)
	out, err := e.registry.Execute(ctx, capability.SearchToolID, query, nil)
	if err != nil {
		e.logger.Printf("logo search failed for %q: %v", name, err)
		return e.fallback(name)
	}

	text := searchText(out)
	candidates := imageURLPattern.FindAllString(text, -1)
	if len(candidates) == 0 {
		// No image-suffixed URL; scan every URL in the response but still
		// keep only the ones that plausibly reference an image.
		candidates = generalURLPattern.FindAllString(text, -1)
	}

	for _, candidate := range dedupe(candidates) {
		candidate = strings.TrimRight(candidate, ".,;")
		if !imagePlausible(candidate) {
			continue
		}
		if logocache.ValidateURL(candidate) != nil {
			continue
		}
		if !e.validate(ctx, candidate) {
			e.logger.Printf("candidate for %q unreachable: %s", name, candidate)
			continue
		}
		if err := e.cache.Put(name, candidate); err != nil {
			// The cache is an optimization; the URL is still returned.
			e.logger.Printf("cache write failed for %q: %v", name, err)
		}
		e.logger.Printf("resolved logo for %q: %s", name, candidate)
		return candidate
	}

	e.logger.Printf("no valid logo URL for %q", name)
	return e.fallback(name)
}

func (e *Enricher) fallback(name string) string {
	if url, ok := e.cache.Default(); ok {
		e.logger.Printf("using default logo for %q", name)
		return url
	}
	return ""
}

// searchText flattens a search capability response into scannable text.
func searchText(out interface{}) string {
	switch v := out.(type) {
	case string:
		return v
	case []searchmodels.Result:
		var b strings.Builder
		for _, r := range v {
			b.WriteString(r.Title)
			b.WriteByte(' ')
			b.WriteString(r.URL)
			b.WriteByte(' ')
			b.WriteString(r.Snippet)
			b.WriteByte('\n')
		}
		return b.String()
	default:
		return fmt.Sprint(v)
	}
}

// imagePlausible reports whether the URL path carries an image suffix. Only
// such URLs may become logos or enter the cache.
func imagePlausible(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".svg"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// headValidator checks reachability with a HEAD request, accepting 2xx.
func headValidator(client *http.Client) Validator {
	return func(ctx context.Context, url string) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode >= 200 && resp.StatusCode < 300
	}
}
