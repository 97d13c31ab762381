package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the main test context these steps need.
type TestContext interface {
	GET(path string) error
	POST(path string, body interface{}) error
	GetResponseField(field string) (interface{}, error)
	LastStatusCode() int
}

// RegisterSteps registers generic request and assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^the response status should be (\d+)$`, steps.assertStatus)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.assertFieldString)
	ctx.Step(`^the response field "([^"]*)" should be (\d+)$`, steps.assertFieldNumber)
	ctx.Step(`^the response should contain field "([^"]*)"$`, steps.assertFieldPresent)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) assertStatus(ctx context.Context, expected int) error {
	if got := s.tc.LastStatusCode(); got != expected {
		return fmt.Errorf("expected status %d, got %d", expected, got)
	}
	return nil
}

func (s *commonSteps) assertFieldString(ctx context.Context, field, expected string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", value) != expected {
		return fmt.Errorf("expected field %q to be %q, got %v", field, expected, value)
	}
	return nil
}

func (s *commonSteps) assertFieldNumber(ctx context.Context, field string, expected int) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	num, ok := value.(float64)
	if !ok {
		return fmt.Errorf("field %q is not a number: %v", field, value)
	}
	if int(num) != expected {
		return fmt.Errorf("expected field %q to be %d, got %d", field, expected, int(num))
	}
	return nil
}

func (s *commonSteps) assertFieldPresent(ctx context.Context, field string) error {
	_, err := s.tc.GetResponseField(field)
	return err
}
