package nethttp

const (
	HeaderCorrelationID    = "X-Correlation-ID"
	HeaderIdempotencyKey   = "Idempotency-Key"
	HeaderEnvironment      = "X-Environment"
	HeaderRealIP           = "X-Real-Ip"
	HeaderForwardedFor     = "X-Forwarded-For"
	HeaderAuthorization    = "Authorization"
	HeaderAPIKey           = "X-Api-Key"
	HeaderInternalToken    = "X-Internal-Service-Token"
)
