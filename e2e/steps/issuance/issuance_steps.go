package issuance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	POST(path string, body interface{}) error
	PATCH(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	GetLastResponseBody() []byte
	Save(key, value string)
	Saved(key string) string
}

// RegisterSteps registers entitlement, issuance and reconciliation steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &issuanceSteps{tc: tc}

	ctx.Step(`^I look up card "([^"]*)"$`, steps.lookUpCard)
	ctx.Step(`^I check card "([^"]*)"$`, steps.checkCard)
	ctx.Step(`^the entitlement for "([^"]*)" should be ([\d.]+) "([^"]*)"$`, steps.entitlementShouldBe)
	ctx.Step(`^I issue the entitlement for card "([^"]*)"$`, steps.issueEntitlement)
	ctx.Step(`^I issue an empty ration for card "([^"]*)"$`, steps.issueEmpty)
	ctx.Step(`^I remember the distribution id$`, steps.rememberDistributionID)
	ctx.Step(`^I list distributions$`, steps.listDistributions)
	ctx.Step(`^the distribution list should contain card "([^"]*)"$`, steps.listShouldContainCard)
	ctx.Step(`^I mark the remembered distribution as (complete|uncomplete)$`, steps.markRemembered)
}

type issuanceSteps struct {
	tc TestContext
}

type line struct {
	ProductName string  `json:"productName"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
}

func (s *issuanceSteps) lookUpCard(ctx context.Context, card string) error {
	return s.tc.GET("/api/ration/search/"+card, nil)
}

func (s *issuanceSteps) checkCard(ctx context.Context, card string) error {
	return s.tc.POST("/api/check-card", map[string]string{"cardNumber": card})
}

func (s *issuanceSteps) products() ([]line, error) {
	var body struct {
		Products []line `json:"products"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &body); err != nil {
		return nil, fmt.Errorf("decode entitlement: %w", err)
	}
	return body.Products, nil
}

func (s *issuanceSteps) entitlementShouldBe(ctx context.Context, product string, qty float64, unit string) error {
	lines, err := s.products()
	if err != nil {
		return err
	}
	for _, l := range lines {
		if l.ProductName == product {
			if l.Quantity != qty || l.Unit != unit {
				return fmt.Errorf("%s: expected %v %s, got %v %s", product, qty, unit, l.Quantity, l.Unit)
			}
			return nil
		}
	}
	return fmt.Errorf("product %q not in entitlement", product)
}

// issueEntitlement looks the card up and issues exactly what it is entitled to.
func (s *issuanceSteps) issueEntitlement(ctx context.Context, card string) error {
	if err := s.lookUpCard(ctx, card); err != nil {
		return err
	}
	lines, err := s.products()
	if err != nil {
		return err
	}
	return s.tc.POST("/api/issue-ration", map[string]interface{}{
		"cardNumber": card,
		"products":   lines,
	})
}

func (s *issuanceSteps) issueEmpty(ctx context.Context, card string) error {
	return s.tc.POST("/api/issue-ration", map[string]interface{}{
		"cardNumber": card,
		"products":   []line{},
	})
}

func (s *issuanceSteps) rememberDistributionID(ctx context.Context) error {
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Save("distribution_id", fmt.Sprint(id))
	return nil
}

func (s *issuanceSteps) listDistributions(ctx context.Context) error {
	return s.tc.GET("/api/distributions", nil)
}

func (s *issuanceSteps) listShouldContainCard(ctx context.Context, card string) error {
	var rows []struct {
		CardNumber string `json:"cardNumber"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &rows); err != nil {
		return fmt.Errorf("decode distributions: %w", err)
	}
	for _, r := range rows {
		if r.CardNumber == card {
			return nil
		}
	}
	return fmt.Errorf("card %s not in %d distributions", card, len(rows))
}

func (s *issuanceSteps) markRemembered(ctx context.Context, action string) error {
	id := s.tc.Saved("distribution_id")
	if id == "" {
		return fmt.Errorf("no distribution id remembered")
	}
	return s.tc.PATCH("/api/distributions/"+id+"/"+action, nil)
}
