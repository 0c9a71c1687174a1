package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"datamanageapi/models"
	"datamanageapi/services"
)

type stubUserRepo struct {
	users map[uint]models.User
}

func (f *stubUserRepo) GetByID(tx *gorm.DB, id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *stubUserRepo) GetByIDs(tx *gorm.DB, ids []uint) ([]models.User, error) {
	return nil, nil
}

func (f *stubUserRepo) GetByUsername(tx *gorm.DB, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *stubUserRepo) GetAll(tx *gorm.DB) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func TestCurrentUser(t *testing.T) {
	repo := &stubUserRepo{users: map[uint]models.User{
		1: {ID: 1, Username: "alice", IsActive: true},
		2: {ID: 2, Username: "bob", IsActive: false},
	}}
	svc := NewSessionServiceWithDeps(repo)

	user, err := svc.CurrentUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.CurrentUser(context.Background(), 2)
	assert.ErrorIs(t, err, services.ErrUnauthorized, "inactive users are rejected")

	_, err = svc.CurrentUser(context.Background(), 99)
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}

func TestLogin(t *testing.T) {
	repo := &stubUserRepo{users: map[uint]models.User{
		1: {ID: 1, Username: "alice", IsActive: true},
		2: {ID: 2, Username: "bob", IsActive: false},
	}}
	svc := NewSessionServiceWithDeps(repo)

	user, err := svc.Login(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)

	_, err = svc.Login(context.Background(), "bob")
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	_, err = svc.Login(context.Background(), "mallory")
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}
