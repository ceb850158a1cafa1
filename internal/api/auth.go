package api

import (
	"context"
	"crypto/subtle"
	"strings"

	"meetmed/internal/config"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// AuthInterceptor authenticates partner systems by API key and throttles
// each key separately.
type AuthInterceptor struct {
	header  string
	clients []config.APIClientKey
	limiter *rateLimiter
}

func NewAuthInterceptor(cfg config.APIConfig) *AuthInterceptor {
	header := strings.ToLower(strings.TrimSpace(cfg.Auth.HeaderAPIKey))
	if header == "" {
		header = apiKeyHeaderDefault
	}
	return &AuthInterceptor{
		header:  header,
		clients: cfg.Auth.APIKeys,
		limiter: newRateLimiter(cfg.RateLimit),
	}
}

func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		client, err := a.checkAuth(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		if !a.limiter.allow(client.Key) {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}

const (
	apiKeyHeaderDefault = "x-api-key"
	clientKeyUnknown    = "unknown"
)

func (a *AuthInterceptor) checkAuth(ctx context.Context, fullMethod string) (config.APIClientKey, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return config.APIClientKey{}, status.Error(codes.Unauthenticated, "missing metadata")
	}

	apiKey := first(md.Get(a.header))
	if apiKey == "" {
		return config.APIClientKey{}, status.Error(codes.Unauthenticated, "missing api key")
	}

	client, ok := a.lookup(apiKey)
	if !ok {
		return config.APIClientKey{}, status.Error(codes.Unauthenticated, "invalid api key")
	}

	if err := checkPermissions(client, fullMethod); err != nil {
		return config.APIClientKey{}, err
	}
	return client, nil
}

// lookup compares against every configured key in constant time.
func (a *AuthInterceptor) lookup(apiKey string) (config.APIClientKey, bool) {
	var (
		found config.APIClientKey
		ok    bool
	)
	for _, c := range a.clients {
		if subtle.ConstantTimeCompare([]byte(c.Key), []byte(apiKey)) == 1 {
			found, ok = c, true
		}
	}
	return found, ok
}

func checkPermissions(client config.APIClientKey, fullMethod string) error {
	required := requiredPermission(fullMethod)
	if required == "" {
		return nil
	}

	// An empty permission list allows every method.
	if len(client.Permissions) == 0 {
		return nil
	}

	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return status.Error(codes.PermissionDenied, "permission denied")
}

func requiredPermission(fullMethod string) string {
	switch fullMethod {
	case methodGetAvailability, methodGetAvailabilityBulk:
		return permReadAvailability
	case methodListDoctors:
		return permReadDoctors
	default:
		return ""
	}
}
