package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateCommentContent(t *testing.T) {
	content, err := ValidateCommentContent("  nice post  ")
	require.NoError(t, err)
	require.Equal(t, "nice post", content)

	_, err = ValidateCommentContent("   ")
	require.Error(t, err)

	_, err = ValidateCommentContent(strings.Repeat("a", MaxCommentLength+1))
	require.Error(t, err)

	content, err = ValidateCommentContent(strings.Repeat("é", MaxCommentLength))
	require.NoError(t, err)
	require.Len(t, []rune(content), MaxCommentLength)
}

func TestValidateTitle(t *testing.T) {
	require.NoError(t, ValidateTitle("Hello"))
	require.Error(t, ValidateTitle(""))
	require.Error(t, ValidateTitle(strings.Repeat("x", MaxTitleLength+1)))
}

func TestNormalizeTags(t *testing.T) {
	tags := NormalizeTags([]string{" Go ", "go", "", "Writing", strings.Repeat("x", MaxTagLength+1)})
	require.Equal(t, []string{"go", "writing"}, tags)

	require.Empty(t, NormalizeTags(nil))
}

func TestClampLimit(t *testing.T) {
	require.Equal(t, 10, ClampLimit(0, 10, 50))
	require.Equal(t, 50, ClampLimit(500, 10, 50))
	require.Equal(t, 7, ClampLimit(7, 10, 50))
}
