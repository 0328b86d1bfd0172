package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/allertrack/backend/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type productRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"not null;index"`
	Brand           *string
	Barcode         *string `gorm:"uniqueIndex"`
	AllergenWarning *string
	Ingredients     *string
	ImageURL        *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (productRecord) TableName() string {
	return "products"
}

func (r *productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:              r.ID,
		Name:            r.Name,
		Brand:           r.Brand,
		Barcode:         r.Barcode,
		AllergenWarning: r.AllergenWarning,
		Ingredients:     r.Ingredients,
		ImageURL:        r.ImageURL,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func fromDomain(p *domain.Product) *productRecord {
	return &productRecord{
		ID:              p.ID,
		Name:            p.Name,
		Brand:           p.Brand,
		Barcode:         p.Barcode,
		AllergenWarning: p.AllergenWarning,
		Ingredients:     p.Ingredients,
		ImageURL:        p.ImageURL,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository returns a gorm backed domain.ProductRepository
func NewProductRepository(db *gorm.DB) domain.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	var record productRecord
	err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrRecordNotFound
	}

	var record productRecord
	err = r.db.WithContext(ctx).Where("id = ?", parsed).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}

	record := fromDomain(product)
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateBarcode
		}
		return err
	}

	product.CreatedAt = record.CreatedAt
	product.UpdatedAt = record.UpdatedAt
	return nil
}

func (r *productRepository) Search(ctx context.Context, query string, limit int) ([]*domain.Product, error) {
	var records []productRecord

	tx := r.db.WithContext(ctx).Order("name asc").Limit(limit)

	// any query word may match; ranking happens in the usecase layer
	if words := strings.Fields(strings.ToLower(query)); len(words) > 0 {
		cond := r.db.Where("LOWER(name) LIKE ?", "%"+words[0]+"%")
		for _, w := range words[1:] {
			cond = cond.Or("LOWER(name) LIKE ?", "%"+w+"%")
		}
		tx = tx.Where(cond)
	}
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toDomain())
	}
	return products, nil
}
