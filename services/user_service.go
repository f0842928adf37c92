package services

import (
	"context"
	"errors"
	"fmt"
	"recipe-api/models"
	"recipe-api/repositories"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// The UserService interface defines the methods that user services need to implement
type UserService interface {
	CreateUser(ctx context.Context, input *CreateUserInput) (*models.User, error)
	CreateSuperuser(ctx context.Context, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	UpdateUser(ctx context.Context, id uint, input *UpdateUserInput) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	AdminUpdateUser(ctx context.Context, id uint, input *AdminUpdateUserInput) (*models.User, error)
}

// --- Structs for Input ---
type CreateUserInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5"`
	Name     string `json:"name" validate:"max=255"`
}

// UpdateUserInput uses pointers to distinguish between empty and not provided.
type UpdateUserInput struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Password *string `json:"password" validate:"omitempty,min=5"`
}

type AdminUpdateUserInput struct {
	UpdateUserInput
	IsActive    *bool `json:"is_active"`
	IsStaff     *bool `json:"is_staff"`
	IsSuperuser *bool `json:"is_superuser"`
}

type userService struct {
	repo repositories.UserRepository
}

var _ UserService = (*userService)(nil)

// NewUserService creates a new UserService instance
func NewUserService(repo repositories.UserRepository) UserService {
	return &userService{repo: repo}
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// saveError turns a unique index violation on email into ErrEmailTaken. It
// covers concurrent writers that both passed ensureEmailFree.
func saveError(err error, action string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	return fmt.Errorf("%s: %w", action, err)
}

// ensureEmailFree returns ErrEmailTaken when another user than exceptID owns email.
func (s *userService) ensureEmailFree(ctx context.Context, email string, exceptID uint) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil && existing.ID != exceptID {
		return ErrEmailTaken
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("database error checking existing user: %w", err)
	}
	return nil
}

func (s *userService) createUser(ctx context.Context, email, password, name string, superuser bool) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:       email,
		Password:    hashedPassword,
		Name:        name,
		IsActive:    true,
		IsStaff:     superuser,
		IsSuperuser: superuser,
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, saveError(err, "failed to create user")
	}
	return &user, nil
}

// CreateUser registers a regular, active account with a normalized email.
func (s *userService) CreateUser(ctx context.Context, input *CreateUserInput) (*models.User, error) {
	return s.createUser(ctx, input.Email, input.Password, input.Name, false)
}

// CreateSuperuser registers an account with staff and superuser flags set.
func (s *userService) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	return s.createUser(ctx, email, password, "", true)
}

// Authenticate never reveals whether the email or the password was wrong.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error retrieving user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error retrieving user: %w", err)
	}
	return user, nil
}

func (s *userService) applyUpdate(ctx context.Context, user *models.User, input *UpdateUserInput) error {
	if input.Email != nil {
		email := models.NormalizeEmail(*input.Email)
		if email == "" {
			return ErrEmailRequired
		}
		if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
			return err
		}
		user.Email = email
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Password != nil {
		hashedPassword, err := hashPassword(*input.Password)
		if err != nil {
			return err
		}
		user.Password = hashedPassword
	}
	return nil
}

// UpdateUser changes the caller's own profile.
func (s *userService) UpdateUser(ctx context.Context, id uint, input *UpdateUserInput) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyUpdate(ctx, user, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, saveError(err, "failed to save user updates")
	}
	return user, nil
}

// ListUsers returns every account ordered by id, for the admin changelist.
func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error retrieving users: %w", err)
	}
	return users, nil
}

// AdminUpdateUser additionally lets staff flip the account flags.
func (s *userService) AdminUpdateUser(ctx context.Context, id uint, input *AdminUpdateUserInput) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyUpdate(ctx, user, &input.UpdateUserInput); err != nil {
		return nil, err
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.IsStaff != nil {
		user.IsStaff = *input.IsStaff
	}
	if input.IsSuperuser != nil {
		user.IsSuperuser = *input.IsSuperuser
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, saveError(err, "failed to save user updates")
	}
	return user, nil
}
