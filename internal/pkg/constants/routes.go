package constants

// API route prefixes
const (
	APIRoute   = "/api"
	APIv1Route = "/v1"
)
