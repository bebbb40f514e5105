package log

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntoFrom_RoundTrip(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := Into(context.Background(), logger)

	require.Same(t, logger, From(ctx))
}

func TestFrom_DefaultWhenEmpty(t *testing.T) {
	t.Parallel()

	require.Same(t, slog.Default(), From(context.Background()))
}
