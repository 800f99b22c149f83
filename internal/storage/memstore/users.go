package memstore

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"CampusPortal/internal/auth"
)

type UserRepository struct{ s *Store }

var _ auth.Repository = (*UserRepository)(nil)

func (r *UserRepository) CreateUser(_ context.Context, user *auth.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return auth.ErrEmailTaken
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.s.users[user.ID] = clone(user)
	return nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range r.s.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if u, ok := r.s.users[id]; ok {
		return clone(u), nil
	}
	return nil, nil
}

func (r *UserRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var users []*auth.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			users = append(users, clone(u))
		}
	}
	return users, nil
}
