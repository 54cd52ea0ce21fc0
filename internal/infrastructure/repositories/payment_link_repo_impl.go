package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"payment-links.backend/internal/domain/entities"
	domainerrors "payment-links.backend/internal/domain/errors"
	"payment-links.backend/internal/infrastructure/models"
	"payment-links.backend/pkg/utils"
)

// PaymentLinkRepositoryImpl implements PaymentLinkRepository
type PaymentLinkRepositoryImpl struct {
	db *gorm.DB
}

func NewPaymentLinkRepository(db *gorm.DB) *PaymentLinkRepositoryImpl {
	return &PaymentLinkRepositoryImpl{db: db}
}

func (r *PaymentLinkRepositoryImpl) Create(ctx context.Context, link *entities.PaymentLink) error {
	if link.ID == uuid.Nil {
		link.ID = utils.GenerateUUIDv7()
	}
	now := time.Now()
	link.CreatedAt = now
	link.UpdatedAt = now
	return GetDB(ctx, r.db).Create(r.toModel(link)).Error
}

func (r *PaymentLinkRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.PaymentLink, error) {
	return r.first(GetDB(ctx, r.db).Where("id = ? AND is_deleted = ?", id, false))
}

func (r *PaymentLinkRepositoryImpl) GetByInvoice(ctx context.Context, invoice string) (*entities.PaymentLink, error) {
	return r.first(GetDB(ctx, r.db).Where("invoice_number = ? AND is_deleted = ?", invoice, false))
}

func (r *PaymentLinkRepositoryImpl) GetByInvoiceForUpdate(ctx context.Context, invoice string) (*entities.PaymentLink, error) {
	return r.first(forUpdate(GetDB(ctx, r.db)).Where("invoice_number = ? AND is_deleted = ?", invoice, false))
}

func (r *PaymentLinkRepositoryImpl) GetLatestByOrder(ctx context.Context, orderID int64) (*entities.PaymentLink, error) {
	return r.first(GetDB(ctx, r.db).
		Where("order_id = ? AND is_deleted = ?", orderID, false).
		Order("updated_at DESC"))
}

func (r *PaymentLinkRepositoryImpl) ListByOrder(ctx context.Context, orderID int64) ([]*entities.PaymentLink, error) {
	var ms []models.PaymentLink
	if err := GetDB(ctx, r.db).
		Where("order_id = ? AND is_deleted = ?", orderID, false).
		Order("updated_at DESC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.toEntities(ms), nil
}

func (r *PaymentLinkRepositoryImpl) UpdateAggregate(ctx context.Context, id uuid.UUID, agg entities.PaymentAggregate) error {
	result := GetDB(ctx, r.db).Model(&models.PaymentLink{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"paid_amount":      agg.Paid,
			"remaining_amount": agg.Remaining,
			"status":           string(agg.Status.Stored()),
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *PaymentLinkRepositoryImpl) SaveReconciliation(ctx context.Context, link *entities.PaymentLink) error {
	link.UpdatedAt = time.Now()
	values := map[string]interface{}{
		"amount":              link.Amount,
		"paid_amount":         link.PaidAmount,
		"remaining_amount":    link.RemainingAmount,
		"status":              string(link.Status.Stored()),
		"payment_link_status": string(link.LinkStatus),
		"updated_at":          link.UpdatedAt,
	}
	if link.ProviderResponse.Valid {
		values["provider_response"] = []byte(link.ProviderResponse.JSON)
	}
	if link.ExpiryDate.Valid {
		values["expiry_date"] = link.ExpiryDate.Time
	}

	db := GetDB(ctx, r.db)
	if link.ID != uuid.Nil {
		result := db.Model(&models.PaymentLink{}).Where("id = ?", link.ID).Updates(values)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
	}
	if link.InvoiceNumber == "" {
		return domainerrors.ErrNotFound
	}
	result := db.Model(&models.PaymentLink{}).Where("invoice_number = ?", link.InvoiceNumber).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *PaymentLinkRepositoryImpl) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*entities.PaymentLink, error) {
	var ms []models.PaymentLink
	if err := GetDB(ctx, r.db).
		Where("payment_link_status = ? AND is_deleted = ?", entities.LinkStatusActive, false).
		Where("expiry_date IS NOT NULL AND expiry_date < ?", now).
		Where("status <> ?", entities.PaymentStatusPaid).
		Order("expiry_date ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.toEntities(ms), nil
}

func (r *PaymentLinkRepositoryImpl) MarkExpired(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&models.PaymentLink{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"payment_link_status": string(entities.LinkStatusExpired),
			"updated_at":          time.Now(),
		}).Error
}

func (r *PaymentLinkRepositoryImpl) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).Model(&models.PaymentLink{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *PaymentLinkRepositoryImpl) first(q *gorm.DB) (*entities.PaymentLink, error) {
	var m models.PaymentLink
	if err := q.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *PaymentLinkRepositoryImpl) toEntities(ms []models.PaymentLink) []*entities.PaymentLink {
	links := make([]*entities.PaymentLink, 0, len(ms))
	for i := range ms {
		links = append(links, r.toEntity(&ms[i]))
	}
	return links
}

func (r *PaymentLinkRepositoryImpl) toModel(link *entities.PaymentLink) *models.PaymentLink {
	m := &models.PaymentLink{
		ID:                link.ID,
		OrderID:           link.OrderID,
		ConfigID:          link.ConfigID,
		InvoiceNumber:     link.InvoiceNumber,
		PaymentLinkURL:    link.PaymentLinkURL,
		Currency:          link.Currency,
		Description:       link.Description,
		Amount:            link.Amount,
		PaidAmount:        link.PaidAmount,
		RemainingAmount:   link.RemainingAmount,
		Status:            string(link.Status.Stored()),
		PaymentLinkStatus: string(link.LinkStatus),
		PartialAllowed:    link.PartialPayment.Allowed,
		MinInitialAmount:  link.PartialPayment.MinInitialAmount,
		Instalments:       link.PartialPayment.Instalments,
		CustomerName:      link.Customer.Name,
		CustomerEmail:     link.Customer.Email,
		CustomerPhone:     link.Customer.Phone,
		NotifyEmail:       link.Notify.Email,
		NotifySMS:         link.Notify.SMS,
		IsDeleted:         link.IsDeleted,
		CreatedAt:         link.CreatedAt,
		UpdatedAt:         link.UpdatedAt,
	}
	if link.ExpiryDate.Valid {
		at := link.ExpiryDate.Time
		m.ExpiryDate = &at
	}
	if link.ProviderResponse.Valid {
		m.ProviderResponse = link.ProviderResponse.JSON
	}
	return m
}

func (r *PaymentLinkRepositoryImpl) toEntity(m *models.PaymentLink) *entities.PaymentLink {
	link := &entities.PaymentLink{
		ID:              m.ID,
		OrderID:         m.OrderID,
		ConfigID:        m.ConfigID,
		InvoiceNumber:   m.InvoiceNumber,
		PaymentLinkURL:  m.PaymentLinkURL,
		Currency:        m.Currency,
		Description:     m.Description,
		Amount:          m.Amount,
		PaidAmount:      m.PaidAmount,
		RemainingAmount: m.RemainingAmount,
		Status:          entities.PaymentStatus(m.Status),
		LinkStatus:      entities.LinkStatus(m.PaymentLinkStatus),
		PartialPayment: entities.PartialPaymentTerms{
			Allowed:          m.PartialAllowed,
			MinInitialAmount: m.MinInitialAmount,
			Instalments:      m.Instalments,
		},
		Customer: entities.CustomerSnapshot{
			Name:  m.CustomerName,
			Email: m.CustomerEmail,
			Phone: m.CustomerPhone,
		},
		Notify: entities.NotifyFlags{
			Email: m.NotifyEmail,
			SMS:   m.NotifySMS,
		},
		IsDeleted: m.IsDeleted,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.ExpiryDate != nil {
		link.ExpiryDate = null.TimeFrom(*m.ExpiryDate)
	}
	if len(m.ProviderResponse) > 0 {
		link.ProviderResponse = null.JSONFrom(m.ProviderResponse)
	}
	return link
}
