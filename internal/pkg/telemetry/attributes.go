package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys used for instrumentation.
const (
	AttrUpstream   = attribute.Key("skywatch.upstream")
	AttrHTTPStatus = attribute.Key("http.response.status_code")
	AttrCacheKey   = attribute.Key("skywatch.cache.key")
	AttrCacheHit   = attribute.Key("skywatch.cache.hit")
	AttrBody       = attribute.Key("skywatch.body")
	AttrSource     = attribute.Key("skywatch.source")
)
