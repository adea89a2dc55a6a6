// Package httputil provides the HTTP plumbing used by the gem registry
// client.
//
//   - [Cache]: file-based cache of decoded registry responses
//   - [Retry]: retry with exponential backoff for transient failures
//
// The cache lives in $XDG_CACHE_HOME/cookgems (or ~/.cache/cookgems) and is
// cleared with `cookgems cache clear`. It only holds registry metadata;
// gem packages themselves are never cached.
package httputil
