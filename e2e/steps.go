package e2e

import (
	"github.com/cucumber/godog"

	"smartration/e2e/steps/admin"
	"smartration/e2e/steps/common"
	"smartration/e2e/steps/issuance"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Generic requests and response assertions
	common.RegisterSteps(ctx, tc)

	// Administrator login
	admin.RegisterSteps(ctx, tc)

	// Entitlement lookup, issuance and reconciliation
	issuance.RegisterSteps(ctx, tc)
}
