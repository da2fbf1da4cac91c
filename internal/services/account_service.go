package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
)

// accountService handles registration, login, and credential changes.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// Register creates a new user with a hashed password and the starting cash
// balance. Uniqueness is enforced by the store's unique index, not a
// check-then-insert, so two concurrent registrations of the same name
// yield exactly one success.
func (s *accountService) Register(username, password, confirmation string) (*models.User, error) {
	if username == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "must provide username")
	}
	if password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "must provide password")
	}
	if confirmation == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "must confirm password")
	}
	if password != confirmation {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "both passwords must match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Cash:         models.StartingCash,
	}

	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateUsername
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// Authenticate verifies a username/password pair. Every failure is the
// same ErrInvalidCredentials so responses never reveal whether the
// username exists.
func (s *accountService) Authenticate(username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	return &user, nil
}

// ChangePassword replaces the stored hash after verifying the old password.
// Existing tokens stay valid; re-authentication of other sessions is not
// performed.
func (s *accountService) ChangePassword(userID, oldPassword, newPassword, confirmation string) error {
	if oldPassword == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "must provide old password")
	}
	if newPassword == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "must provide new password")
	}
	if confirmation == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "must confirm new password")
	}
	if newPassword != confirmation {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "both passwords must match")
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(user).Update("password_hash", string(hash)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return nil
}

// UsernameAvailable reports whether no user currently holds the username.
// The check is advisory only; Register's unique constraint is authoritative
// against concurrent registrations.
func (s *accountService) UsernameAvailable(username string) (bool, error) {
	if username == "" {
		return false, nil
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count == 0, nil
}

// GetUserByID retrieves a user by ID.
func (s *accountService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}
