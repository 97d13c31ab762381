package wallet_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	passModel "cartera/internal/pass/models"
	"cartera/internal/wallet"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
)

const (
	iphoneUA    = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	androidUA   = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	desktopUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	instagramUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Instagram 300.0.0.0"
)

func TestDetectPlatform(t *testing.T) {
	assert.Equal(t, passModel.PlatformApple, wallet.DetectPlatform(iphoneUA))
	assert.Equal(t, passModel.PlatformGoogle, wallet.DetectPlatform(androidUA))
	assert.Equal(t, passModel.PlatformUnknown, wallet.DetectPlatform(desktopUA))
	assert.Equal(t, passModel.PlatformUnknown, wallet.DetectPlatform(""))
}

func TestIsInAppBrowser(t *testing.T) {
	assert.True(t, wallet.IsInAppBrowser(instagramUA))
	assert.False(t, wallet.IsInAppBrowser(iphoneUA))
}

func TestGeneratorGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://wallet.example.com/p/abc.pkpass"}`))
	}))
	defer server.Close()

	generator := wallet.NewGenerator(server.URL)
	generated, err := generator.Generate(context.Background(), wallet.GenerateRequest{
		ProjectID: id.ProjectID(uuid.New()),
		PassToken: "tok-1",
		Platform:  passModel.PlatformApple,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://wallet.example.com/p/abc.pkpass", generated.URL)
}

func TestGeneratorErrors(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		_, err := wallet.NewGenerator("").Generate(context.Background(), wallet.GenerateRequest{})
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeRemoteCall, "pass generator is not configured"))
	})

	t.Run("remote failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := wallet.NewGenerator(server.URL).Generate(context.Background(), wallet.GenerateRequest{})
		require.True(t, dErrors.HasCode(err, dErrors.CodeRemoteCall))
	})

	t.Run("empty url", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := wallet.NewGenerator(server.URL).Generate(context.Background(), wallet.GenerateRequest{})
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeRemoteCall, "pass generator returned no url"))
	})
}

func TestGeneratorCircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	generator := wallet.NewGenerator(server.URL)
	for i := 0; i < 5; i++ {
		_, err := generator.Generate(context.Background(), wallet.GenerateRequest{})
		require.True(t, dErrors.HasCode(err, dErrors.CodeRemoteCall))
	}
	require.Equal(t, 5, calls)

	_, err := generator.Generate(context.Background(), wallet.GenerateRequest{})
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeRemoteCall, "pass generator circuit open"))
	assert.Equal(t, 5, calls)
}
