package newsletter

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation")
	ErrConflict   = errors.New("already subscribed")
)

type Subscriber struct {
	ID        uint      `gorm:"primaryKey"                 json:"id"`
	Email     string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	DB *gorm.DB
}

func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(&Subscriber{})
}

// Subscribe stores the address lowercased so that case variants collide.
func (s *Service) Subscribe(ctx context.Context, email string) (*Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email required", ErrValidation)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}

	sub := &Subscriber{Email: email}
	err := s.DB.WithContext(ctx).Create(sub).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) || (err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")) {
		return nil, fmt.Errorf("%s: %w", email, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return sub, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&Subscriber{}).Count(&n).Error
	return n, err
}
