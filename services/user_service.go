package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/personalization-api/logger"
	"github.com/kendall-kelly/personalization-api/models"
	"gorm.io/gorm"
)

// ProfileUpdate holds the profile fields a user may change. Empty fields are left as stored.
type ProfileUpdate struct {
	Name  string
	Email string
}

// UserService stores the profiles of authenticated users
type UserService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewUserService creates a user service
func NewUserService(db *gorm.DB, log *logger.Logger) *UserService {
	if log == nil {
		log = logger.Get()
	}
	return &UserService{db: db, log: log.With("service", "user")}
}

// Register creates the profile of auth0ID from its Auth0 userinfo. Only the admin role claim grants
// admin; any other claim yields a customer.
func (s *UserService) Register(ctx context.Context, auth0ID string, info *Auth0UserInfo, roleClaim string) (*models.User, error) {
	if strings.TrimSpace(info.Email) == "" {
		return nil, ErrIncompleteEmail
	}
	if strings.TrimSpace(info.Name) == "" {
		return nil, ErrIncompleteName
	}

	role := models.RoleCustomer
	if roleClaim == models.RoleAdmin {
		role = models.RoleAdmin
	}
	user := &models.User{Auth0ID: auth0ID, Name: info.Name, Email: info.Email, Role: role}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		// deleted profiles still hold their unique keys
		err := tx.Unscoped().Model(&models.User{}).
			Where("auth0_id = ? OR email = ?", user.Auth0ID, user.Email).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrUserExists
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUserExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// FindByAuth0ID returns the profile of auth0ID or ErrUserNotFound
func (s *UserService) FindByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies update to the profile of auth0ID
func (s *UserService) UpdateProfile(ctx context.Context, auth0ID string, update ProfileUpdate) (*models.User, error) {
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = (&UserService{db: tx, log: s.log}).FindByAuth0ID(ctx, auth0ID)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if update.Name != "" {
			updates["name"] = update.Name
		}
		if update.Email != "" && update.Email != user.Email {
			var count int64
			err := tx.Unscoped().Model(&models.User{}).
				Where("email = ? AND id <> ?", update.Email, user.ID).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrEmailTaken
			}
			updates["email"] = update.Email
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		return tx.First(user, user.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
