package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

func TestDisabledProviderIsNoop(t *testing.T) {
	tp, err := NewProvider(nil, Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestSafeAttributesKeepsAllowList(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/settlements/:id"),
		attribute.String("patient_name", "Jane"),
	)
	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorHidesMessage(t *testing.T) {
	err := SafeError(errors.New("patient Jane Doe not found"))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "Jane")
	assert.Nil(t, SafeError(nil))
}

func TestExtractContextWithoutHeaders(t *testing.T) {
	_, _ = NewProvider(nil, Config{}, zap.NewNop())
	ctx := ExtractContext(context.Background(), propagation.HeaderCarrier(http.Header{}))
	assert.NotNil(t, ctx)
}
