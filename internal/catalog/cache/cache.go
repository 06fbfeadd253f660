// Package cache fronts the catalog store with a Redis card cache. Card records
// are small and read on every lookup and issuance, while the catalog itself
// changes rarely.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"smartration/internal/catalog/models"
	"smartration/pkg/platform/circuit"
)

const keyPrefix = "smartration:card:"

// sharedLookupTimeout bounds a collapsed source read. It runs detached from any
// single caller so one cancelled request cannot fail the others waiting on it.
const sharedLookupTimeout = 10 * time.Second

// Source is the authoritative catalog.
type Source interface {
	FindCardByNumber(ctx context.Context, cardNumber string) (*models.Card, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
}

// CardCache is a read-through cache for card records. Misses for the same card
// are collapsed into a single source lookup. Redis failures degrade to direct
// source reads, and a circuit breaker stops waiting on Redis once it keeps
// failing.
type CardCache struct {
	source  Source
	client  redis.UniversalClient
	ttl     time.Duration
	logger  *slog.Logger
	breaker *circuit.Breaker
	group   singleflight.Group
}

type Option func(*CardCache)

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *CardCache) {
		if b != nil {
			c.breaker = b
		}
	}
}

func New(source Source, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger, opts ...Option) *CardCache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &CardCache{
		source:  source,
		client:  client,
		ttl:     ttl,
		logger:  logger,
		breaker: circuit.New("card-cache", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(1)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CardCache) FindCardByNumber(ctx context.Context, cardNumber string) (*models.Card, error) {
	key := keyPrefix + cardNumber
	useRedis := c.breaker.Allow()

	if useRedis {
		raw, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			c.record(ctx, nil)
			var card models.Card
			if jsonErr := json.Unmarshal(raw, &card); jsonErr == nil {
				return &card, nil
			}
			c.logger.WarnContext(ctx, "discarding undecodable cached card", "card_number", cardNumber)
		case errors.Is(err, redis.Nil):
			c.record(ctx, nil)
		default:
			c.record(ctx, err)
			c.logger.WarnContext(ctx, "card cache read failed", "card_number", cardNumber, "error", err)
			useRedis = false
		}
	}

	ch := c.group.DoChan(cardNumber, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()

		card, err := c.source.FindCardByNumber(lookupCtx, cardNumber)
		if err != nil {
			return nil, err
		}
		if !useRedis {
			return card, nil
		}
		if payload, err := json.Marshal(card); err == nil {
			if err := c.client.Set(lookupCtx, key, payload, c.ttl).Err(); err != nil {
				c.record(lookupCtx, err)
				c.logger.WarnContext(lookupCtx, "card cache write failed", "card_number", cardNumber, "error", err)
			}
		}
		return card, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		card := *res.Val.(*models.Card)
		return &card, nil
	}
}

// ListProducts is not cached; the product list is read once per lookup and must
// reflect catalog edits immediately.
func (c *CardCache) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return c.source.ListProducts(ctx)
}

func (c *CardCache) record(ctx context.Context, err error) {
	if err == nil {
		if _, change := c.breaker.RecordSuccess(); change.Closed {
			c.logger.InfoContext(ctx, "card cache recovered, using redis again")
		}
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "card cache circuit opened, reading catalog directly", "error", err)
	}
}
