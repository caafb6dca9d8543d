// Package httputil downloads remote input files for the CLI and server.
//
// # Overview
//
// Boundary files are usually published as static TopoJSON or GeoJSON
// documents, and maps load them by URL. [Fetcher] lets every command accept
// an http(s) URL wherever it accepts a boundary or dataset path:
//
//	f := httputil.NewFetcher(c, logger)
//	data, err := f.Fetch(ctx, "https://example.org/india.topo.json")
//
// # Caching
//
// Responses are stored in a [cache.Cache] under "fetch:" plus the hash of
// the URL, for [DefaultTTL]. Repeated runs read the cached copy and never
// touch the network. `choropleth cache clear` removes them together with
// cached documents.
//
// # Retry
//
// Transient failures are retried with exponential backoff:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Other 4xx responses fail immediately with [errors.ErrCodeNotFound] or
// [errors.ErrCodeInvalidInput].
//
// [errors.ErrCodeNotFound]: github.com/matzehuels/choropleth/pkg/errors.ErrCodeNotFound
// [errors.ErrCodeInvalidInput]: github.com/matzehuels/choropleth/pkg/errors.ErrCodeInvalidInput
package httputil
