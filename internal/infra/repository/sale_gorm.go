package repository

import (
	"context"

	"revintel/internal/domain/model"
	repo "revintel/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleGormRepository struct {
	db *gorm.DB
}

// DI
func NewSaleGormRepository(db *gorm.DB) *SaleGormRepository {
	return &SaleGormRepository{db: db}
}

func (r *SaleGormRepository) FindByID(ctx context.Context, id int64) (model.Sale, error) {
	var s model.Sale
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return model.Sale{}, mapError(err)
	}
	return s, nil
}

// commitまで行ロックを持つ
func (r *SaleGormRepository) FindByIDForUpdate(ctx context.Context, id int64) (model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, id).Error
	if err != nil {
		return model.Sale{}, mapError(err)
	}
	return s, nil
}

func (r *SaleGormRepository) Create(ctx context.Context, s model.Sale) (model.Sale, error) {
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return model.Sale{}, mapError(err)
	}
	return s, nil
}

// sale_dateは更新対象に入れない
func (r *SaleGormRepository) Update(ctx context.Context, s model.Sale) error {
	res := r.db.WithContext(ctx).Model(&model.Sale{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"customer_id": s.CustomerID,
		"quantity":    s.Quantity,
		"total_price": s.TotalPrice,
	})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *SaleGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Sale{}, id)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *SaleGormRepository) CountByProduct(ctx context.Context, productID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Sale{}).Where("product_id = ?", productID).Count(&n).Error
	return n, err
}

// 顧客削除の前に売上を消す
func (r *SaleGormRepository) DeleteByCustomer(ctx context.Context, customerID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Delete(&model.Sale{})
	if res.Error != nil {
		return 0, mapError(res.Error)
	}
	return res.RowsAffected, nil
}
