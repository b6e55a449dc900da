package repository

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"catalog-service/internal/models"
)

type UsersRepository struct {
	db *gorm.DB
}

func NewUsersRepository(db *gorm.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

// CreateUser hashes the password and stores the user
func (r *UsersRepository) CreateUser(ctx context.Context, user *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.HashedPassword = string(hash)
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	if user.Roles == "" {
		user.Roles = "user"
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUserByUsername retrieves a user by username
func (r *UsersRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (r *UsersRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (r *UsersRepository) VerifyPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) == nil
}

// EnsureAdminUser seeds the initial admin account when it does not exist yet.
// Safe to call on every startup.
func (r *UsersRepository) EnsureAdminUser(ctx context.Context, username, email, password string) error {
	if username == "" || password == "" {
		return nil
	}

	_, err := r.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	admin := &models.User{
		Username: username,
		Email:    email,
		FullName: "Administrator",
		Roles:    "admin",
	}
	return r.CreateUser(ctx, admin, password)
}
