package order

import (
	"context"

	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Migrate() error {
	return r.DB.AutoMigrate(&Order{}, &Item{})
}

func (r *GormRepo) Create(ctx context.Context, o *Order) error {
	return r.DB.WithContext(ctx).Create(o).Error
}

func (r *GormRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	var o Order
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("number = ?", number).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// List pages through orders matching the non-zero fields of filter.
func (r *GormRepo) List(ctx context.Context, filter Order, limit, offset int) ([]Order, int64, error) {
	q := r.DB.WithContext(ctx).Model(&Order{}).Where(&filter).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []Order
	err := q.Preload("Items").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
