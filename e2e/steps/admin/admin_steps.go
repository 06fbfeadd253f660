package admin

import (
	"context"
	"fmt"
	"os"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GetResponseField(field string) (interface{}, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	SetAccessToken(token string)
}

// RegisterSteps registers administrator login steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &adminSteps{tc: tc}

	ctx.Step(`^I am logged in as the administrator$`, steps.loggedInAsAdministrator)
	ctx.Step(`^I log in with email "([^"]*)" and password "([^"]*)"$`, steps.logIn)
	ctx.Step(`^I fail to log in (\d+) times$`, steps.failLoginNTimes)
	ctx.Step(`^I use the token "([^"]*)"$`, steps.useToken)
}

type adminSteps struct {
	tc TestContext
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *adminSteps) loggedInAsAdministrator(ctx context.Context) error {
	if err := s.logIn(ctx, envOr("E2E_ADMIN_EMAIL", "admin@example.com"), envOr("E2E_ADMIN_PASSWORD", "Admin@123")); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("admin login returned %d: %s", status, s.tc.GetLastResponseBody())
	}
	token, err := s.tc.GetResponseField("token")
	if err != nil {
		return err
	}
	s.tc.SetAccessToken(fmt.Sprint(token))
	return nil
}

func (s *adminSteps) logIn(ctx context.Context, email, password string) error {
	return s.tc.POST("/api/admin/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (s *adminSteps) failLoginNTimes(ctx context.Context, times int) error {
	for range times {
		if err := s.logIn(ctx, "admin@example.com", "wrong-password"); err != nil {
			return err
		}
	}
	return nil
}

func (s *adminSteps) useToken(ctx context.Context, token string) error {
	s.tc.SetAccessToken(token)
	return nil
}
