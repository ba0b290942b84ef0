package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"trustlessid/internal/auth/models"
	id "trustlessid/pkg/domain"
	"trustlessid/pkg/platform/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store *InMemoryUserStore
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = New()
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}

// TestLookupBehavior tests user retrieval by ID and email.
func (s *InMemoryUserStoreSuite) TestLookupBehavior() {
	s.Run("returns user by ID when exists", func() {
		user := &models.User{
			ID:    id.UserID(uuid.New()),
			Email: "jane.doe@example.com",
			Name:  "Jane Doe",
		}
		s.Require().NoError(s.store.Save(context.Background(), user))

		found, err := s.store.FindByID(context.Background(), user.ID)
		s.Require().NoError(err)
		s.Equal(user, found)
	})

	s.Run("email lookup ignores case and surrounding space", func() {
		user := &models.User{
			ID:    id.UserID(uuid.New()),
			Email: "Email.Lookup@example.com",
			Name:  "Email Lookup",
		}
		s.Require().NoError(s.store.Save(context.Background(), user))

		found, err := s.store.FindByEmail(context.Background(), "  email.lookup@EXAMPLE.com ")
		s.Require().NoError(err)
		s.Equal(user.ID, found.ID)
	})

	s.Run("returns ErrNotFound when user ID does not exist", func() {
		_, err := s.store.FindByID(context.Background(), id.UserID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns ErrNotFound when email does not exist", func() {
		_, err := s.store.FindByEmail(context.Background(), "missing@example.com")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryUserStoreSuite) TestEmailUniqueness() {
	first := &models.User{ID: id.NewUserID(), Email: "dup@example.com"}
	s.Require().NoError(s.store.Save(context.Background(), first))

	second := &models.User{ID: id.NewUserID(), Email: "DUP@example.com"}
	s.Require().ErrorIs(s.store.Save(context.Background(), second), sentinel.ErrConflict)

	first.Name = "Renamed"
	s.Require().NoError(s.store.Save(context.Background(), first), "re-saving the same user is allowed")
}

func (s *InMemoryUserStoreSuite) TestReturnedUsersAreCopies() {
	user := &models.User{ID: id.NewUserID(), Email: "copy@example.com", Name: "Original"}
	s.Require().NoError(s.store.Save(context.Background(), user))

	found, err := s.store.FindByID(context.Background(), user.ID)
	s.Require().NoError(err)
	found.Name = "Mutated"

	again, err := s.store.FindByID(context.Background(), user.ID)
	s.Require().NoError(err)
	s.Equal("Original", again.Name)
}
