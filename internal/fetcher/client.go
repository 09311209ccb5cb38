// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

import (
	"net/http"
	"time"

	"github.com/fluffyriot/statsync/internal/config"
	"github.com/fluffyriot/statsync/internal/fetcher/tools"
	"github.com/fluffyriot/statsync/internal/store"
)

// Client bundles everything a fetch cycle needs: the shared HTTP client,
// the durable store and the external acquisition tools.
type Client struct {
	httpClient *http.Client
	store      *store.Store
	cfg        *config.AppConfig
	meta       *tools.MetaDump
	script     *tools.ProfileScript
}

func NewClient(cfg *config.AppConfig, st *store.Store) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		store:      st,
		cfg:        cfg,
		meta:       tools.NewMetaDump(cfg.YtdlpPath, cfg.ToolTimeout),
		script:     tools.NewProfileScript(cfg.PythonPath, cfg.IgScriptPath, cfg.ToolTimeout),
	}
}

// listingLimit is the result-count cap for flat listings: the stored
// settings value when set, the configured default otherwise. Same
// precedence the worker interval gets.
func (c *Client) listingLimit() int {
	if n := c.store.Settings().ListingLimit; n > 0 {
		return n
	}
	return c.cfg.ListingLimit
}

func (c *Client) get(url string) (*http.Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	return c.httpClient.Do(req)
}
