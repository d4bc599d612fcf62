//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certgate/internal/audit"
	auditredis "certgate/internal/audit/store/redis"
	"certgate/internal/audit/storetest"
	"certgate/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestConformance() {
	storetest.Run(s.T(), func(t *testing.T) audit.Store {
		s.Require().NoError(s.redis.FlushAll(context.Background()))
		store, err := auditredis.New(s.redis.Client, "")
		s.Require().NoError(err)
		return store
	})
}

func (s *RedisStoreSuite) TestStreamIsAppendOnly() {
	ctx := context.Background()
	store, err := auditredis.New(s.redis.Client, "certgate:test")
	s.Require().NoError(err)

	trail := audit.NewTrail(store)
	for i, status := range []audit.Status{audit.StatusDenied, audit.StatusSuccess, audit.StatusError} {
		rec := storetest.Record(i, time.Now())
		rec.Result.Status = status
		s.Require().NoError(trail.Append(ctx, rec))
	}

	recs, err := trail.Recent(ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(recs, 3)
	s.Equal(audit.StatusDenied, recs[0].Result.Status)
	s.Equal(audit.StatusError, recs[2].Result.Status)

	n, err := s.redis.Client.XLen(ctx, "certgate:test").Result()
	s.Require().NoError(err)
	s.Equal(int64(3), n)
}
