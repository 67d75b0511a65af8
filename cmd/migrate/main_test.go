package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	name, _, n, err := parseArgs([]string{"step", "-2"})
	require.NoError(t, err)
	assert.Equal(t, "step", name)
	assert.Equal(t, -2, n)

	name, _, _, err = parseArgs([]string{"up", "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "up", name)

	for _, args := range [][]string{nil, {"sideways"}, {"force"}, {"force", "latest"}} {
		_, _, _, err := parseArgs(args)
		assert.Error(t, err, "%v", args)
	}
}
