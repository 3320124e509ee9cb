// Package metering records billable actions and draws down tenant credits.
package metering

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/repository"
)

const (
	// MessageQuantity and MessageCredits are charged for every committed AI reply.
	MessageQuantity = 1
	MessageCredits  = 1

	DefaultListLimit = 50
)

type Meter struct {
	store  *repository.Store
	logger *zap.Logger
}

func NewMeter(store *repository.Store, logger *zap.Logger) *Meter {
	return &Meter{store: store, logger: logger}
}

// Record appends one usage entry and decrements the tenant balance in a
// single transaction.
func (m *Meter) Record(ctx context.Context, businessID string, usageType models.UsageType, quantity, credits int) (*models.UsageLogEntry, error) {
	var entry *models.UsageLogEntry
	err := m.store.InTx(ctx, func(tx *repository.Repositories) error {
		var err error
		entry, err = RecordWith(ctx, tx, businessID, usageType, quantity, credits)
		return err
	})
	if err != nil {
		m.logger.Error("Failed to record usage",
			zap.String("business_id", businessID),
			zap.String("type", string(usageType)),
			zap.Error(err))
		return nil, err
	}
	return entry, nil
}

// RecordWith is Record against caller-held repositories. No balance check
// happens here; enforcement belongs to the caller.
func RecordWith(ctx context.Context, repos *repository.Repositories, businessID string, usageType models.UsageType, quantity, credits int) (*models.UsageLogEntry, error) {
	if quantity <= 0 {
		quantity = 1
	}
	entry := &models.UsageLogEntry{
		ID:          uuid.NewString(),
		BusinessID:  businessID,
		Type:        usageType,
		Quantity:    quantity,
		CreditsUsed: credits,
	}
	if err := repos.Usage.Create(ctx, entry); err != nil {
		return nil, err
	}
	if credits != 0 {
		if err := repos.Businesses.DecrementCredits(ctx, businessID, credits); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// List returns the latest usage entries of a tenant, newest first.
func (m *Meter) List(ctx context.Context, businessID string, limit int) ([]*models.UsageLogEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return m.store.Usage.ListByBusiness(ctx, businessID, limit)
}
