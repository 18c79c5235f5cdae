//go:build unit

package errs_test

import (
	"errors"
	"testing"

	"library-circulation/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMark(t *testing.T) {
	sentinel := errors.New("stock conflict")

	t.Run("marked error matches the sentinel with errors.Is", func(t *testing.T) {
		cause := errs.New("row lock timed out")
		err := errs.Mark(cause, sentinel)

		assert.True(t, errors.Is(err, sentinel))
	})

	t.Run("cause chain stays visible", func(t *testing.T) {
		leaf := errors.New("connection reset")
		err := errs.Mark(errs.Wrap(leaf, "exec failed"), sentinel)

		assert.True(t, errors.Is(err, leaf))
		assert.True(t, errors.Is(err, sentinel))
	})

	t.Run("message comes from the cause", func(t *testing.T) {
		err := errs.Mark(errs.New("exec failed"), sentinel)

		assert.Equal(t, "exec failed", err.Error())
	})

	t.Run("nil cause yields the sentinel itself", func(t *testing.T) {
		err := errs.Mark(nil, sentinel)

		require.ErrorIs(t, err, sentinel)
		assert.Equal(t, sentinel, err)
	})

	t.Run("re-marking keeps every sentinel matchable", func(t *testing.T) {
		first := errors.New("invalid transition")
		second := errors.New("transaction failed")
		err := errs.Mark(errs.Mark(errs.New("update rejected"), first), second)

		assert.True(t, errors.Is(err, first))
		assert.True(t, errors.Is(err, second))
	})
}
