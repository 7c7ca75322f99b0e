package ports

import "context"

// SuggestionGateway produces rewrite suggestions for one sentence.
// An empty result is valid and means no suggestions were produced.
// Failures are reported as *domain.SuggestionError. The gateway's transport
// owns timeouts; callers do not retry.
type SuggestionGateway interface {
	RequestRewrites(ctx context.Context, sentence string) ([]string, error)
}

// SuggestionGatewayFunc adapts a function to SuggestionGateway.
type SuggestionGatewayFunc func(ctx context.Context, sentence string) ([]string, error)

func (f SuggestionGatewayFunc) RequestRewrites(ctx context.Context, sentence string) ([]string, error) {
	return f(ctx, sentence)
}
