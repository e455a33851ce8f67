package svip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"candlebliss-api/internal/metrics"
	"candlebliss-api/internal/model"
)

const (
	// DefaultThreshold is the order count that makes a customer SVIP
	DefaultThreshold = 20

	// DefaultTTL is how long a computed status is trusted
	DefaultTTL = 24 * time.Hour

	cacheName = "svip"
)

// OrderSource counts a customer's orders
type OrderSource interface {
	GetOrdersByUser(ctx context.Context, token string, userID int64) ([]model.OrderSummary, error)
}

// Service derives and caches the SVIP flag of customers
type Service struct {
	orders    OrderSource
	client    *redis.Client
	threshold int
	ttl       time.Duration
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewService creates a new SVIP service. A nil client disables caching.
func NewService(orders OrderSource, client *redis.Client, threshold int, ttl time.Duration, m *metrics.Metrics) *Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		orders:    orders,
		client:    client,
		threshold: threshold,
		ttl:       ttl,
		metrics:   m,
		now:       time.Now,
	}
}

// CacheKey is the per-user key, kept identical to the storefront's storage key
func CacheKey(userID int64) string {
	return fmt.Sprintf("user_%d_svip_status", userID)
}

// Status returns the SVIP status of the session user, from cache when fresh
func (s *Service) Status(ctx context.Context, sess *model.Session) (*model.SVIPStatus, error) {
	if !sess.Authenticated() {
		return nil, errors.New("svip status requires a signed-in user")
	}

	if cached, ok := s.cached(ctx, sess.UserID); ok {
		return cached, nil
	}

	orders, err := s.orders.GetOrdersByUser(ctx, sess.Token, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	status := &model.SVIPStatus{
		UserID:     sess.UserID,
		OrderCount: len(orders),
		IsSVIP:     len(orders) >= s.threshold,
		CheckedAt:  s.now().UTC(),
	}
	s.store(ctx, status)
	log.Printf("[SVIP] User %d has %d orders, svip=%t", status.UserID, status.OrderCount, status.IsSVIP)
	return status, nil
}

// Invalidate forgets the cached status of a user
func (s *Service) Invalidate(ctx context.Context, userID int64) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Del(ctx, CacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate svip status: %w", err)
	}
	return nil
}

func (s *Service) cached(ctx context.Context, userID int64) (*model.SVIPStatus, bool) {
	if s.client == nil {
		return nil, false
	}
	payload, err := s.client.Get(ctx, CacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.metrics.CacheError(cacheName)
			log.Printf("[SVIP] Cache read for user %d failed: %v", userID, err)
		}
		s.metrics.CacheMiss(cacheName)
		return nil, false
	}

	var status model.SVIPStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		s.metrics.CacheMiss(cacheName)
		return nil, false
	}
	// Redis expiry is the primary TTL; this guards entries written with a longer one
	if s.now().Sub(status.CheckedAt) >= s.ttl {
		s.metrics.CacheMiss(cacheName)
		return nil, false
	}
	s.metrics.CacheHit(cacheName)
	status.FromCache = true
	return &status, true
}

func (s *Service) store(ctx context.Context, status *model.SVIPStatus) {
	if s.client == nil {
		return
	}
	raw, err := json.Marshal(status)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, CacheKey(status.UserID), raw, s.ttl).Err(); err != nil {
		s.metrics.CacheError(cacheName)
		log.Printf("[SVIP] Cache write for user %d failed: %v", status.UserID, err)
	}
}
