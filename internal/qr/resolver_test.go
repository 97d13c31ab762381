package qr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cartera/pkg/domain-errors"
)

func TestResolve_BareToken(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"plain alphanumeric":     {in: "abc123XYZ", want: "abc123XYZ"},
		"surrounding whitespace": {in: "  raw-token-42  ", want: "raw-token-42"},
		"contains slash":         {in: "a/b/c", want: "a/b/c"},
		"uppercase scheme-ish":   {in: "HTTPS://host/x", want: "HTTPS://host/x"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Resolve(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Value)
		})
	}
}

func TestResolve_QueryParameters(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"token param":              {in: "https://pay.example.com/claim?token=abc123", want: "abc123"},
		"t param":                  {in: "https://pay.example.com/claim?t=abc123&extra=1", want: "abc123"},
		"s param":                  {in: "https://pay.example.com/claim?s=tok-s", want: "tok-s"},
		"pass_token param":         {in: "https://pay.example.com/claim?pass_token=tok-pt", want: "tok-pt"},
		"pt param":                 {in: "https://pay.example.com/claim?pt=tok-short", want: "tok-short"},
		"token beats t":            {in: "https://host/x?t=B&token=A", want: "A"},
		"t beats s":                {in: "https://host/x?s=C&t=B", want: "B"},
		"empty token falls to t":   {in: "https://host/x?token=&t=B", want: "B"},
		"unrelated params ignored": {in: "https://host/scan/XYZ?utm_source=qr", want: "XYZ"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Resolve(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Value)
		})
	}
}

func TestResolve_PathFallback(t *testing.T) {
	got, err := Resolve("https://host/scan/XYZ123")
	require.NoError(t, err)
	assert.Equal(t, "XYZ123", got.Value)

	got, err = Resolve("https://host/scan/XYZ123/")
	require.NoError(t, err)
	assert.Equal(t, "XYZ123", got.Value, "trailing slash must not produce an empty segment")

	got, err = Resolve("https://host/a//b///tok")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Value)
}

func TestResolve_Rejections(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		_, err := Resolve(in)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPayload))
	}

	_, err := Resolve("https://host")
	require.Error(t, err, "URL with no path and no query has no token")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPayload))

	_, err = Resolve("https://host/")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPayload))
}

func TestResolve_NearURLGarbage(t *testing.T) {
	// Strings that start like URLs but fail standard parsing must still be
	// attempted as bare tokens, not hard-fail.
	garbage := "http://host\x7f/%zz"
	got, err := Resolve(garbage)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(garbage), got.Value)
}

func TestResolve_TrimsResolvedValue(t *testing.T) {
	got, err := Resolve("https://host/x?token=%20abc%20")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Value)
}
