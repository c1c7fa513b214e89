//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"peopleapi/internal/person/models"
	"peopleapi/internal/person/store"
	"peopleapi/pkg/platform/sentinel"
	"peopleapi/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backend *store.InMemory
	store   *store.Cached
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.backend = store.NewInMemory()
	s.store = store.NewCached(s.backend, s.redis.Client, store.WithCacheTTL(time.Minute))
}

func (s *RedisCacheSuite) TestCachedReadSurvivesBackendRemoval() {
	ctx := context.Background()
	p := &models.Person{ID: uuid.New(), FirstName: "John", LastName: "Doe"}
	s.Require().NoError(s.store.Insert(ctx, p))

	_, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)

	// removing behind the decorator's back leaves the cached copy visible
	_, err = s.backend.Delete(ctx, p.ID)
	s.Require().NoError(err)

	got, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p, got)
}

func (s *RedisCacheSuite) TestDeleteThroughDecoratorHidesRecord() {
	ctx := context.Background()
	p := &models.Person{ID: uuid.New(), FirstName: "John", LastName: "Doe"}
	s.Require().NoError(s.store.Insert(ctx, p))
	_, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)

	deleted, err := s.store.Delete(ctx, p.ID)
	s.Require().NoError(err)
	s.True(deleted)

	_, err = s.store.FindByID(ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisCacheSuite) TestUpdateThroughDecoratorIsVisible() {
	ctx := context.Background()
	p := &models.Person{ID: uuid.New(), FirstName: "John", LastName: "Doe"}
	s.Require().NoError(s.store.Insert(ctx, p))
	_, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)

	renamed := &models.Person{ID: p.ID, FirstName: "John", LastName: "Renamed"}
	s.Require().NoError(s.store.Update(ctx, renamed))

	got, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(renamed, got)
}
