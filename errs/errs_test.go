package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinels_Distinct(t *testing.T) {
	all := []error{
		ErrInputUnavailable,
		ErrDictionaryFull,
		ErrPersistenceCorrupt,
		ErrInvalidConfig,
		ErrWorkerFailed,
		ErrUnsupported,
		ErrClosed,
	}

	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.NotErrorIs(t, a, b, "sentinel %d should not match sentinel %d", i, j)
		}
	}
}

func TestSentinels_WrapAndIs(t *testing.T) {
	wrapped := fmt.Errorf("%w: ceiling 1000000 reached", ErrDictionaryFull)

	assert.ErrorIs(t, wrapped, ErrDictionaryFull)
	assert.False(t, errors.Is(wrapped, ErrPersistenceCorrupt))
	assert.Contains(t, wrapped.Error(), "dictionary full")
}
