// Package server assembles the HTTP transport: the middleware chain, the
// API routes and the Prometheus scrape endpoint.
package server

import "github.com/google/wire"

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)
