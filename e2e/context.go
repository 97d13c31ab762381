package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DevProjectID is the project seeded by the server's in-memory mode.
const DevProjectID = "00000000-0000-0000-0000-000000000001"

// TestContext carries HTTP state across scenario steps. Scenarios run
// against a live server at CARTERA_BASE_URL.
type TestContext struct {
	BaseURL string
	Client  *http.Client

	AccessToken string
	ProjectID   string
	PassToken   string
	ClaimCode   string

	LastStatus int
	LastBody   map[string]interface{}
	LastRaw    []byte
}

func NewTestContext() *TestContext {
	base := os.Getenv("CARTERA_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &TestContext{
		BaseURL: base,
		Client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		ProjectID: DevProjectID,
	}
}

// Reset clears per-scenario state but keeps the access token so scenarios
// can share a background login.
func (tc *TestContext) Reset() {
	tc.PassToken = ""
	tc.ClaimCode = ""
	tc.LastStatus = 0
	tc.LastBody = nil
	tc.LastRaw = nil
}

func (tc *TestContext) POST(path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, tc.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

func (tc *TestContext) GET(path string) error {
	req, err := http.NewRequest(http.MethodGet, tc.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	if tc.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.AccessToken)
	}
	resp, err := tc.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.LastStatus = resp.StatusCode
	tc.LastRaw = raw
	tc.LastBody = nil
	if len(raw) > 0 {
		var decoded map[string]interface{}
		if err := json.Unmarshal(raw, &decoded); err == nil {
			tc.LastBody = decoded
		}
	}
	return nil
}

// GetResponseField walks the last JSON response for a dotted field path.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	if tc.LastBody == nil {
		return nil, fmt.Errorf("last response was not a JSON object")
	}
	var current interface{} = tc.LastBody
	for _, part := range splitPath(field) {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field %q is not an object", field)
		}
		current, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q not found in response", field)
		}
	}
	return current, nil
}

func splitPath(field string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(field); i++ {
		if field[i] == '.' {
			parts = append(parts, field[start:i])
			start = i + 1
		}
	}
	return append(parts, field[start:])
}

// Accessors used by step packages.

func (tc *TestContext) LastStatusCode() int { return tc.LastStatus }

func (tc *TestContext) GetProjectID() string { return tc.ProjectID }

func (tc *TestContext) SetAccessToken(token string) { tc.AccessToken = token }

func (tc *TestContext) ClearAccessToken() { tc.AccessToken = "" }

func (tc *TestContext) GetPassToken() string { return tc.PassToken }

func (tc *TestContext) SetPassToken(token string) { tc.PassToken = token }
