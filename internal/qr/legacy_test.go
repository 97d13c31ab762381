package qr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cartera/pkg/domain-errors"
)

func TestResolveLegacy_PathForm(t *testing.T) {
	got, err := ResolveLegacy("https://host/c/proj-1/sub-42")
	require.NoError(t, err)
	assert.Equal(t, "proj-1", got.ProjectID)
	assert.Equal(t, "sub-42", got.GoogleSub)
}

func TestResolveLegacy_QueryForm(t *testing.T) {
	got, err := ResolveLegacy("https://host/claim?p=proj-1&s=sub-42")
	require.NoError(t, err)
	assert.Equal(t, "proj-1", got.ProjectID)
	assert.Equal(t, "sub-42", got.GoogleSub)
}

func TestResolveLegacy_RejectsPartialPayloads(t *testing.T) {
	cases := []string{
		"https://host/claim?p=proj-1",       // missing subject
		"https://host/claim?s=sub-42",       // missing project
		"https://host/c/proj-1",             // path too short
		"https://host/c/proj-1/sub-42/more", // path too long
		"https://host/other/proj-1/sub-42",  // wrong prefix
		"",
	}
	for _, in := range cases {
		_, err := ResolveLegacy(in)
		require.Error(t, err, "input %q", in)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPayload))
	}
}
