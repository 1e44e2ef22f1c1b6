package repository

import (
	"context"
	"strings"

	"revintel/internal/domain/model"
	repo "revintel/internal/repository"

	"gorm.io/gorm"
)

type CustomerGormRepository struct {
	db *gorm.DB
}

// DI
func NewCustomerGormRepository(db *gorm.DB) *CustomerGormRepository {
	return &CustomerGormRepository{db: db}
}

// 名前・メールの部分一致、名前順でページング
func (r *CustomerGormRepository) List(ctx context.Context, q repo.CustomerListQuery) ([]model.Customer, int64, error) {
	customers := []model.Customer{}
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Customer{})
	if term := strings.TrimSpace(q.Q); term != "" {
		like := likePattern(term)
		tx = tx.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\')", like, like)
	}

	if err := tx.Count(&total).Error; err != nil {
		return []model.Customer{}, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Order("name asc").Order("id asc").Offset(offset).Limit(q.Limit).Find(&customers).Error; err != nil {
		return []model.Customer{}, 0, err
	}
	return customers, total, nil
}

func (r *CustomerGormRepository) FindByID(ctx context.Context, id int64) (model.Customer, error) {
	var c model.Customer
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return model.Customer{}, mapError(err)
	}
	return c, nil
}

func (r *CustomerGormRepository) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Customer{}, mapError(err)
	}
	return c, nil
}

// 連絡先だけ更新
func (r *CustomerGormRepository) UpdateContact(ctx context.Context, c model.Customer) error {
	res := r.db.WithContext(ctx).Model(&model.Customer{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"name":  c.Name,
		"email": c.Email,
		"phone": c.Phone,
	})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CustomerGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Customer{}, id)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
