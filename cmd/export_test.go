package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRange(t *testing.T) {
	opts, err := exportRange("2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), opts.From)
	assert.Equal(t, 31, opts.To.Day())
	assert.Equal(t, 23, opts.To.Hour())

	opts, err = exportRange("", "")
	require.NoError(t, err)
	assert.True(t, opts.From.IsZero())
	assert.True(t, opts.To.IsZero())

	_, err = exportRange("03/01/2026", "")
	assert.Error(t, err)
}
