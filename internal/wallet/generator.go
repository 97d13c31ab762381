package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	passModel "cartera/internal/pass/models"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/platform/circuit"
)

// GenerateRequest asks the remote generator for a wallet artifact.
type GenerateRequest struct {
	ProjectID    id.ProjectID       `json:"project_id"`
	PassToken    string             `json:"pass_token"`
	SerialNumber string             `json:"serial_number"`
	Platform     passModel.Platform `json:"platform"`
}

// GeneratedPass is the remote generator's answer: a platform-specific
// URL the claimer is redirected to (a .pkpass download or a Google
// Wallet save link).
type GeneratedPass struct {
	URL string `json:"url"`
}

// Generator is the HTTP client for the wallet-file generator service.
// Pass binary formats are produced remotely; this repo only brokers the
// request.
type Generator struct {
	baseURL string
	client  *http.Client
	breaker *circuit.Breaker
}

func NewGenerator(baseURL string) *Generator {
	return &Generator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		breaker: circuit.New(5, 30*time.Second),
	}
}

func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*GeneratedPass, error) {
	if g.baseURL == "" {
		return nil, dErrors.New(dErrors.CodeRemoteCall, "pass generator is not configured")
	}
	if !g.breaker.Allow() {
		return nil, dErrors.New(dErrors.CodeRemoteCall, "pass generator circuit open")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode generate request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build generate request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.breaker.RecordFailure()
		return nil, dErrors.Wrap(err, dErrors.CodeRemoteCall, "pass generator unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.breaker.RecordFailure()
		return nil, dErrors.New(dErrors.CodeRemoteCall,
			fmt.Sprintf("pass generator returned status %d", resp.StatusCode))
	}
	g.breaker.RecordSuccess()

	var generated GeneratedPass
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeRemoteCall, "invalid pass generator response")
	}
	if generated.URL == "" {
		return nil, dErrors.New(dErrors.CodeRemoteCall, "pass generator returned no url")
	}
	return &generated, nil
}
