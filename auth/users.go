package auth

import (
	"context"
	"errors"
	"fmt"
	"geo-editor/model"
	"strings"
	"sync"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// Demo account, matching the offline client build.
const (
	DemoEmail    = "admin@omi.local"
	DemoPassword = "admin123"
	DemoName     = "Administrador Demo"
	DemoUserID   = "u-admin"
)

// UserDirectory finds accounts by login email.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
}

// DemoUsers is an in-memory directory.
type DemoUsers struct {
	mu    sync.RWMutex
	users map[string]model.User
}

// NewDemoUsers returns a directory holding the demo administrator.
func NewDemoUsers() (*DemoUsers, error) {
	d := &DemoUsers{users: make(map[string]model.User)}
	if err := d.Add(DemoUserID, DemoEmail, DemoName, DemoPassword); err != nil {
		return nil, err
	}
	return d, nil
}

// Add registers an account with a plaintext password.
func (d *DemoUsers) Add(id, email, name, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[normalizeEmail(email)] = model.User{ID: id, Email: email, Name: name, PasswordHash: hash}
	return nil
}

func (d *DemoUsers) FindByEmail(ctx context.Context, email string) (model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[normalizeEmail(email)]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

// UserRecord is the users table.
type UserRecord struct {
	ID           string `gorm:"primaryKey;size:64"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	Name         string `gorm:"size:255"`
	PasswordHash string `gorm:"size:255;not null"`
	IsActive     bool   `gorm:"default:true"`
}

func (UserRecord) TableName() string {
	return "users"
}

// GormUsers reads accounts from the database.
type GormUsers struct {
	db *gorm.DB
}

func NewGormUsers(db *gorm.DB) *GormUsers {
	return &GormUsers{db: db}
}

// FindByEmail ignores inactive accounts.
func (g *GormUsers) FindByEmail(ctx context.Context, email string) (model.User, error) {
	var r UserRecord
	err := g.db.WithContext(ctx).
		Where("lower(email) = ? AND is_active = ?", normalizeEmail(email), true).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("query user: %w", err)
	}
	return model.User{ID: r.ID, Email: r.Email, Name: r.Name, PasswordHash: r.PasswordHash}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
