package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestNewResource(t *testing.T) {
	res, err := newResource(context.Background(), "cartservice")
	require.NoError(t, err)

	name, ok := res.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "cartservice", name.AsString())

	version, ok := res.Set().Value(semconv.ServiceVersionKey)
	require.True(t, ok)
	assert.Equal(t, serviceVersion, version.AsString())
}
