package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	log, err := New("json", "debug")
	require.NoError(t, err)
	require.NotNil(t, log)

	log, err = New("text", "warn")
	require.NoError(t, err)
	require.NotNil(t, log)

	log, err = New("text", "none")
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNewRejectsUnknownValues(t *testing.T) {
	_, err := New("json", "loud")
	require.Error(t, err)

	_, err = New("xml", "info")
	require.Error(t, err)
}
