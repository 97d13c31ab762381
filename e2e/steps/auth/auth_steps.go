package auth

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the main test context these steps need.
type TestContext interface {
	POST(path string, body interface{}) error
	GetResponseField(field string) (interface{}, error)
	GetProjectID() string
	SetAccessToken(token string)
	ClearAccessToken()
}

// RegisterSteps registers login and session step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, steps.login)
	ctx.Step(`^I save the access token$`, steps.saveAccessToken)
	ctx.Step(`^I am not authenticated$`, steps.clearToken)
}

type authSteps struct {
	tc TestContext
}

func (s *authSteps) login(ctx context.Context, email, password string) error {
	body := map[string]interface{}{
		"project_id": s.tc.GetProjectID(),
		"email":      email,
		"password":   password,
	}
	return s.tc.POST("/auth/login", body)
}

func (s *authSteps) saveAccessToken(ctx context.Context) error {
	token, err := s.tc.GetResponseField("access_token")
	if err != nil {
		return err
	}
	str, ok := token.(string)
	if !ok || str == "" {
		return fmt.Errorf("access_token is missing or empty")
	}
	s.tc.SetAccessToken(str)
	return nil
}

func (s *authSteps) clearToken(ctx context.Context) error {
	s.tc.ClearAccessToken()
	return nil
}
