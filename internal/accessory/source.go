package accessory

import "context"

// Callers that drive characteristics.
const (
	SourceHomeKit = "homekit"
	SourceAPI     = "api"
	SourceMQTT    = "mqtt"
	SourceUnknown = "unknown"
)

type sourceKey struct{}

// WithSource tags ctx with the caller driving a characteristic. The tag is
// copied into every Event the call emits.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the caller tag of ctx, or SourceUnknown.
func SourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok && s != "" {
		return s
	}
	return SourceUnknown
}
