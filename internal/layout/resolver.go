// Package layout fetches the optional server-side home-row layout from a
// companion plugin reachable on the media server's base URL. Absence of the
// plugin, a failed request or an unparseable document are all normal
// conditions that silently fall back to the hardcoded default row set.
package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/homeshelf-tv/homeshelf/internal/domain"
)

const (
	configNamespace = "HomeRows"
	fetchTimeout    = 15 * time.Second
)

// Wire document shape:
// { Layout: [ { Type, Title, Rows: [ { Type, Label, PluginId, EndpointParams } ] } ] }

type configDocument struct {
	Layout []configSection `json:"Layout"`
}

type configSection struct {
	Type  string      `json:"Type"`
	Title string      `json:"Title"`
	Rows  []configRow `json:"Rows"`
}

type configRow struct {
	Type     string `json:"Type"`
	Label    string `json:"Label"`
	PluginID string `json:"PluginId"`
	// Unknown keys must be ignored (forward-compatible parsing), so the
	// params decode into a loose map and only string values are kept.
	EndpointParams map[string]any `json:"EndpointParams"`
}

// Row type tags used by the companion service
const (
	rowTypeSystem     = "system"
	rowTypeCollection = "collection"
)

// EndpointParams key selecting the built-in feed for system rows
const paramNativeRow = "NativeRow"

// LayoutCache persists resolved layouts across runs; satisfied by
// store.LayoutStore
type LayoutCache interface {
	GetLayout(userID string) ([]domain.RowDescriptor, bool)
	SaveLayout(userID string, descriptors []domain.RowDescriptor) error
}

// Resolver fetches and parses the remote layout configuration
type Resolver struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      LayoutCache
	logger     *slog.Logger
}

// NewResolver creates a layout resolver for the given server. cache may be
// nil, disabling the last-known-good fallback.
func NewResolver(baseURL, token string, cache LayoutCache, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
		cache:  cache,
		logger: logger,
	}
}

// Resolve returns the ordered row descriptors the server wants shown, trying
// the user-scoped document first and retrying once with the global scope
// when the user-scoped document carries no rows. A (nil, false) result means
// no usable layout exists and the caller falls back to the default row set;
// it is never surfaced as a user-facing error.
func (r *Resolver) Resolve(ctx context.Context, userID string) ([]domain.RowDescriptor, bool) {
	descriptors, fetchErr := r.fetchScope(ctx, userID)
	if fetchErr == nil && len(descriptors) == 0 && userID != "" {
		descriptors, fetchErr = r.fetchScope(ctx, "")
	}

	if fetchErr != nil {
		r.logger.Debug("layout fetch failed, trying cached layout", "error", fetchErr)
		return r.cachedLayout(userID)
	}

	if len(descriptors) == 0 {
		r.logger.Debug("layout service returned no rows")
		return nil, false
	}

	if r.cache != nil {
		if err := r.cache.SaveLayout(userID, descriptors); err != nil {
			r.logger.Debug("failed to cache layout", "error", err)
		}
	}

	return descriptors, true
}

// cachedLayout falls back to the last successfully fetched layout for this
// user, then the global scope
func (r *Resolver) cachedLayout(userID string) ([]domain.RowDescriptor, bool) {
	if r.cache == nil {
		return nil, false
	}
	if descriptors, ok := r.cache.GetLayout(userID); ok {
		r.logger.Debug("using cached layout", "userID", userID, "rows", len(descriptors))
		return descriptors, true
	}
	if descriptors, ok := r.cache.GetLayout(""); ok {
		r.logger.Debug("using cached global layout", "rows", len(descriptors))
		return descriptors, true
	}
	return nil, false
}

// fetchScope retrieves and parses one scope of the layout document. A nil
// error with zero descriptors means the document existed but defined no
// usable rows.
func (r *Resolver) fetchScope(ctx context.Context, userID string) ([]domain.RowDescriptor, error) {
	reqURL := fmt.Sprintf("%s/%s/Config", r.baseURL, configNamespace)
	if userID != "" {
		query := url.Values{}
		query.Set("userId", userID)
		reqURL = reqURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Emby-Token", r.token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("layout service status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var doc configDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("unparseable layout document: %w", err)
	}

	return r.parseDocument(doc), nil
}

// parseDocument flattens the section/row document into ordered descriptors,
// dropping rows with unknown types or unrecognized system feed names
func (r *Resolver) parseDocument(doc configDocument) []domain.RowDescriptor {
	var descriptors []domain.RowDescriptor

	for _, section := range doc.Layout {
		for _, row := range section.Rows {
			desc, ok := r.parseRow(row)
			if !ok {
				continue
			}
			descriptors = append(descriptors, desc)
		}
	}

	return descriptors
}

// parseRow converts one wire row into a descriptor. Dropped rows are logged
// at debug level and never crash the layout.
func (r *Resolver) parseRow(row configRow) (domain.RowDescriptor, bool) {
	params := stringParams(row.EndpointParams)

	switch strings.ToLower(row.Type) {
	case rowTypeSystem:
		feed, ok := domain.ParseSystemFeed(params[paramNativeRow])
		if !ok {
			r.logger.Debug("dropping row with unrecognized feed", "nativeRow", params[paramNativeRow])
			return domain.RowDescriptor{}, false
		}
		desc := domain.SystemRow(feed)
		desc.Label = row.Label
		desc.Params = params
		return desc, true

	case rowTypeCollection:
		// The id is validated by the row builder, which surfaces a
		// visible Error row for malformed values
		desc := domain.CollectionRow(row.PluginID)
		desc.Label = row.Label
		desc.Params = params
		return desc, true

	default:
		r.logger.Debug("dropping row with unknown type", "type", row.Type)
		return domain.RowDescriptor{}, false
	}
}

// stringParams keeps the string-valued endpoint params and ignores the rest
func stringParams(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	params := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			params[k] = s
		}
	}
	return params
}
