package e2e

import (
	"github.com/cucumber/godog"

	"cartera/e2e/steps/auth"
	"cartera/e2e/steps/common"
	"cartera/e2e/steps/loyalty"
)

// RegisterSteps registers all step definitions from modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	auth.RegisterSteps(ctx, tc)
	loyalty.RegisterSteps(ctx, tc)
}
