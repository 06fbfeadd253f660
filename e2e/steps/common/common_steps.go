package common

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetLastResponseHeader(name string) string
}

// RegisterSteps registers generic request and assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the service is running$`, steps.serviceIsRunning)
	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.responseFieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should be present$`, steps.responseFieldShouldBePresent)
	ctx.Step(`^the response should contain an error "([^"]*)"$`, steps.responseShouldContainError)
	ctx.Step(`^the response header "([^"]*)" should be present$`, steps.responseHeaderShouldBePresent)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/health", nil); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("health check returned %d: %s", status, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) responseStatusShouldBe(ctx context.Context, expected int) error {
	if got := s.tc.GetLastResponseStatus(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) responseFieldShouldEqual(ctx context.Context, field, expected string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != expected {
		return fmt.Errorf("expected %s=%q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) responseFieldShouldBePresent(ctx context.Context, field string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if v == nil || fmt.Sprint(v) == "" {
		return fmt.Errorf("field %q is empty", field)
	}
	return nil
}

func (s *commonSteps) responseShouldContainError(ctx context.Context, code string) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &body); err != nil {
		return fmt.Errorf("decode error body: %w", err)
	}
	if !strings.EqualFold(body.Error, code) {
		return fmt.Errorf("expected error %q, got %q", code, body.Error)
	}
	return nil
}

func (s *commonSteps) responseHeaderShouldBePresent(ctx context.Context, name string) error {
	if s.tc.GetLastResponseHeader(name) == "" {
		return fmt.Errorf("header %s missing", name)
	}
	return nil
}
