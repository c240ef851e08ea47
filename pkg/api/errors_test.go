package api

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUsageError_MatchesKind(t *testing.T) {
	err := Usagef(ErrDuplicateChild, "child %s declared twice", "x")
	require.ErrorIs(t, err, ErrDuplicateChild)
	require.Equal(t, "duplicate child declaration: child x declared twice", err.Error())

	var pe error = &PanicError{Value: err, Stack: []byte("stack")}
	var ue *UsageError
	require.ErrorAs(t, pe, &ue)
	require.ErrorIs(t, &RuntimeError{Node: "root", Err: pe}, ErrDuplicateChild)
}

func TestIsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	require.False(t, IsCancellation(ctx, context.Canceled))

	cause := errors.New("shutdown")
	cancel(cause)
	require.True(t, IsCancellation(ctx, context.Canceled))
	require.True(t, IsCancellation(ctx, fmt.Errorf("wrapped: %w", cause)))
	require.False(t, IsCancellation(ctx, errors.New("other")))
	require.False(t, IsCancellation(ctx, nil))
}
