package repository

import (
	"context"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/docstore"
	apperrors "foodshare/pkg/errors"
)

const usersCollection = "users"

type docstoreUserRepository struct {
	store docstore.Store
}

func NewDocstoreUserRepository(store docstore.Store) repository.UserRepository {
	return &docstoreUserRepository{
		store: store,
	}
}

func (r *docstoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.store.Get(ctx, docstore.DocPath(usersCollection, id))
	if err != nil {
		return nil, apperrors.FromStore(err, "User")
	}
	return &entity.User{
		ID:          doc.ID,
		DisplayName: doc.String("displayName"),
		Email:       doc.String("email"),
		PhotoURL:    doc.String("photoURL"),
		Role:        entity.ParseRole(doc.String("role")),
		CreatedAt:   doc.Time("createdAt"),
	}, nil
}
