package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/km-arc/go-ioc/app/models"
)

// UserRepository is the persistence boundary for users. Handlers depend on
// this interface; the container supplies the gorm implementation.
type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	Find(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
}

// GormUserRepository persists users through the scope's UnitOfWork.
// Registered as scoped, so within one request it shares the controller's
// session.
type GormUserRepository struct {
	uow *UnitOfWork
}

func NewGormUserRepository(uow *UnitOfWork) UserRepository {
	return &GormUserRepository{uow: uow}
}

func (r *GormUserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.uow.Session(ctx).Order("id").Find(&users).Error
	return users, errors.Wrap(err, "listing users")
}

func (r *GormUserRepository) Find(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.uow.Session(ctx).First(&user, id).Error; err != nil {
		return nil, errors.Wrapf(err, "finding user %d", id)
	}
	return &user, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return errors.Wrap(r.uow.Session(ctx).Create(user).Error, "creating user")
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return errors.Wrap(r.uow.Session(ctx).Save(user).Error, "updating user")
}

func (r *GormUserRepository) Delete(ctx context.Context, id uint) error {
	return errors.Wrap(r.uow.Session(ctx).Delete(&models.User{}, id).Error, "deleting user")
}
