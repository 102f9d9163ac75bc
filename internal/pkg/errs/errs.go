package errs

import "errors"

// Sentinel kinds for the failures this service distinguishes. Services wrap
// causes with fmt.Errorf("%w: ...", kind) so callers can branch on kind with
// errors.Is without losing the underlying error.
var (
	// ErrValidation marks rejected caller input.
	ErrValidation = errors.New("validation error")
	// ErrEmbedding marks a failed or empty embedding from the model provider.
	ErrEmbedding = errors.New("embedding error")
	// ErrDimensionMismatch marks a vector whose length does not match the
	// configured dimensionality. Kept separate from ErrEmbedding: it means
	// the model or store configuration drifted, not a transient failure.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrStorage marks a vector store or database failure.
	ErrStorage = errors.New("storage error")
	// ErrUnavailable marks a provider that is down or out of quota.
	ErrUnavailable = errors.New("provider unavailable")
)

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsEmbedding(err error) bool {
	return errors.Is(err, ErrEmbedding)
}

func IsDimensionMismatch(err error) bool {
	return errors.Is(err, ErrDimensionMismatch)
}

func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
