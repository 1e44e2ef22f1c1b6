package repository

import (
	"context"
	"strings"

	"revintel/internal/domain/model"
	repo "revintel/internal/repository"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

const saleRowColumns = `sales.id AS sale_id,
	sales.sale_date AS sale_date,
	sales.customer_id AS customer_id,
	customers.name AS customer_name,
	sales.product_id AS product_id,
	products.name AS product_name,
	products.category AS category,
	sales.quantity AS quantity,
	sales.total_price AS total_price`

// 集計用の読み取り専用リポジトリ
type SaleQueryGormRepository struct {
	db *gorm.DB
}

// DI
func NewSaleQueryGormRepository(db *gorm.DB) *SaleQueryGormRepository {
	return &SaleQueryGormRepository{db: db}
}

// 絞り込み済みの全行（順序は sale_date, id）
func (r *SaleQueryGormRepository) ListRows(ctx context.Context, f repo.SaleFilter) ([]repo.SaleRow, error) {
	rows := []repo.SaleRow{}
	err := r.filtered(ctx, f).
		Select(saleRowColumns).
		Order("sales.sale_date ASC").Order("sales.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// 新しい順でページング。件数も同じ条件で数える
func (r *SaleQueryGormRepository) PageRows(ctx context.Context, f repo.SaleFilter, page, perPage int) ([]repo.SaleRow, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := []repo.SaleRow{}
	offset := (page - 1) * perPage
	err := r.filtered(ctx, f).
		Select(saleRowColumns).
		Order("sales.sale_date DESC").Order("sales.id DESC").
		Offset(offset).Limit(perPage).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// 毎回新しいチェーンを作る（Countと本体で条件を共有しない）
func (r *SaleQueryGormRepository) filtered(ctx context.Context, f repo.SaleFilter) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&model.Sale{}).
		Joins("JOIN customers ON customers.id = sales.customer_id").
		Joins("JOIN products ON products.id = sales.product_id")
	return applySaleFilter(q, f)
}

// 絞り込み条件をSQLにする唯一の場所
func applySaleFilter(q *gorm.DB, f repo.SaleFilter) *gorm.DB {
	if f.DateFrom != nil {
		q = q.Where("sales.sale_date >= ?", f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		// 終了日はその日いっぱいを含む
		q = q.Where("sales.sale_date < ?", f.DateTo.AddDate(0, 0, 1).UTC())
	}
	if cat := strings.TrimSpace(f.Category); cat != "" {
		q = q.Where("LOWER(products.category) LIKE ? ESCAPE '\\'", likePattern(cat))
	}
	if f.ProductID != nil {
		q = q.Where("sales.product_id = ?", *f.ProductID)
	}
	if f.CustomerID != nil {
		q = q.Where("sales.customer_id = ?", *f.CustomerID)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := likePattern(term)
		q = q.Where("(LOWER(customers.name) LIKE ? ESCAPE '\\' OR LOWER(products.name) LIKE ? ESCAPE '\\')", like, like)
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// 小文字化してワイルドカードをエスケープした %term%
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(cases.Lower(language.Und).String(term)) + "%"
}
