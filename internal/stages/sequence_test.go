package stages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	all := All()

	t.Run("non-terminal stages advance by one", func(t *testing.T) {
		for i, s := range all[:len(all)-1] {
			next, ok := Next(s)
			require.True(t, ok, "stage %s", s)
			assert.Equal(t, all[i+1], next)
		}
	})

	t.Run("terminal stage has no successor", func(t *testing.T) {
		next, ok := Next(Production)
		assert.False(t, ok)
		assert.Empty(t, next)
	})

	t.Run("unknown stage has no successor", func(t *testing.T) {
		_, ok := Next(Stage("qa"))
		assert.False(t, ok)
	})
}

func TestIsTerminal(t *testing.T) {
	for _, s := range All() {
		assert.Equal(t, s == Production, IsTerminal(s), "stage %s", s)
	}
	assert.Equal(t, Production, Last())
	assert.Equal(t, Intake, First())
}

func TestIndexOf(t *testing.T) {
	t.Run("strictly increasing along the order", func(t *testing.T) {
		for _, s := range All() {
			next, ok := Next(s)
			if !ok {
				continue
			}
			a, err := IndexOf(s)
			require.NoError(t, err)
			b, err := IndexOf(next)
			require.NoError(t, err)
			assert.Less(t, a, b)
			assert.Equal(t, a+1, b)
		}
	})

	t.Run("unknown stage fails", func(t *testing.T) {
		_, err := IndexOf(Stage("staging"))
		assert.ErrorIs(t, err, ErrUnknownStage)
	})
}

func TestParse(t *testing.T) {
	s, err := Parse("dev_environment")
	require.NoError(t, err)
	assert.Equal(t, DevEnvironment, s)

	_, err = Parse("DESIGN")
	assert.ErrorIs(t, err, ErrUnknownStage)

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestAllReturnsCopy(t *testing.T) {
	a := All()
	a[0] = Production
	assert.Equal(t, Intake, All()[0])
	assert.Len(t, All(), 8)
}
