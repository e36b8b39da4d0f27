package bootstrap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestCloseRunsInReverseAndCombinesErrors(t *testing.T) {
	rt := &Runtime{}
	var order []string
	rt.OnClose("database", func() error {
		order = append(order, "database")
		return errors.New("db busy")
	})
	rt.OnClose("redis", func() error {
		order = append(order, "redis")
		return nil
	})
	rt.OnClose("pubsub", func() error {
		order = append(order, "pubsub")
		return errors.New("pubsub gone")
	})

	err := rt.Close()
	require.Error(t, err)
	assert.Equal(t, []string{"pubsub", "redis", "database"}, order)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "close database")

	assert.NoError(t, rt.Close(), "second close is a no-op")
}
