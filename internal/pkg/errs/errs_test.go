package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindSurvivesWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("%w: search lawyers: %w", ErrStorage, cause)

	require.True(t, IsStorage(err))
	require.True(t, errors.Is(err, cause))
	require.False(t, IsValidation(err))
	require.False(t, IsEmbedding(err))
}

func TestKindsAreDistinct(t *testing.T) {
	kinds := []error{ErrValidation, ErrEmbedding, ErrDimensionMismatch, ErrStorage, ErrUnavailable}
	for i, a := range kinds {
		for j, b := range kinds {
			if i == j {
				continue
			}
			require.False(t, errors.Is(a, b), "%v must not match %v", a, b)
		}
	}
}

func TestHelpersOnNilAndPlainErrors(t *testing.T) {
	require.False(t, IsValidation(nil))
	require.False(t, IsStorage(errors.New("plain")))
	require.True(t, IsUnavailable(fmt.Errorf("gemini: %w", ErrUnavailable)))
}
