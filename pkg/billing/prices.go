package billing

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/voicedesk/pkg/plans"
)

// PriceBook maps plans to processor price identifiers.
//
//	stripe:
//	  starter: price_1Pq...
//	  professional: price_1Pr...
//	paddle:
//	  starter: pri_01h...
type PriceBook struct {
	prices map[string]map[plans.ID]string
}

// LoadPriceBook decodes a price book. Unknown plan keys are rejected.
func LoadPriceBook(r io.Reader) (*PriceBook, error) {
	var raw map[string]map[string]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrInvalidPriceBook, err)
	}

	pb := &PriceBook{prices: make(map[string]map[plans.ID]string, len(raw))}
	for provider, entries := range raw {
		byPlan := make(map[plans.ID]string, len(entries))
		for key, price := range entries {
			id, ok := plans.ParseID(key)
			if !ok {
				return nil, fmt.Errorf("%w: %s: unknown plan %q", ErrInvalidPriceBook, provider, key)
			}
			if price == "" {
				return nil, fmt.Errorf("%w: %s: empty price for %s", ErrInvalidPriceBook, provider, id)
			}
			byPlan[id] = price
		}
		pb.prices[provider] = byPlan
	}
	return pb, nil
}

// LoadPriceBookFile reads a price book from disk.
func LoadPriceBookFile(path string) (*PriceBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidPriceBook, err)
	}
	defer f.Close()
	return LoadPriceBook(f)
}

// PriceID returns the provider's price for a plan.
func (pb *PriceBook) PriceID(provider string, plan plans.ID) (string, bool) {
	price, ok := pb.prices[provider][plan]
	return price, ok
}

// PlanForPrice finds the plan a provider price belongs to.
func (pb *PriceBook) PlanForPrice(provider, priceID string) (plans.ID, bool) {
	for id, price := range pb.prices[provider] {
		if price == priceID {
			return id, true
		}
	}
	return "", false
}
