package loyalty

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the main test context these steps need.
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string) error
	GetResponseField(field string) (interface{}, error)
	GetProjectID() string
	GetPassToken() string
	SetPassToken(token string)
}

// RegisterSteps registers pass issuance and scanner step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &loyaltySteps{tc: tc}

	ctx.Step(`^I issue a pass with serial number "([^"]*)"$`, steps.issuePass)
	ctx.Step(`^I save the pass token$`, steps.savePassToken)
	ctx.Step(`^I scan the pass QR payload$`, steps.scanPass)
	ctx.Step(`^I scan the payload "([^"]*)"$`, steps.scanRawPayload)
	ctx.Step(`^I list the project visits$`, steps.listVisits)
}

type loyaltySteps struct {
	tc TestContext
}

func (s *loyaltySteps) issuePass(ctx context.Context, serial string) error {
	body := map[string]interface{}{
		"serial_number": serial,
		"platform":      "apple",
	}
	return s.tc.POST("/projects/"+s.tc.GetProjectID()+"/passes", body)
}

func (s *loyaltySteps) savePassToken(ctx context.Context) error {
	token, err := s.tc.GetResponseField("pass_token")
	if err != nil {
		return err
	}
	str, ok := token.(string)
	if !ok || str == "" {
		return fmt.Errorf("pass_token is missing or empty")
	}
	s.tc.SetPassToken(str)
	return nil
}

func (s *loyaltySteps) scanPass(ctx context.Context) error {
	if s.tc.GetPassToken() == "" {
		return fmt.Errorf("no pass token saved; issue a pass first")
	}
	return s.scanRawPayload(ctx, "https://cartera.app/p?token="+s.tc.GetPassToken())
}

func (s *loyaltySteps) scanRawPayload(ctx context.Context, payload string) error {
	return s.tc.POST("/scanner/visit", map[string]interface{}{"payload": payload})
}

func (s *loyaltySteps) listVisits(ctx context.Context) error {
	return s.tc.GET("/projects/" + s.tc.GetProjectID() + "/visits")
}
