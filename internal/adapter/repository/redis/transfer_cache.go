package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fundstransfer/internal/domain"
	"github.com/iho/fundstransfer/internal/usecase"
)

// CachedTransferRepository is a read-through cache in front of a
// usecase.TransferRepository. Only terminal records are cached since they
// never change. Cache failures fall back to the wrapped repository.
type CachedTransferRepository struct {
	next   usecase.TransferRepository
	cache  *Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedTransferRepository creates a new CachedTransferRepository.
func NewCachedTransferRepository(next usecase.TransferRepository, cache *Cache, ttl time.Duration, logger zerolog.Logger) *CachedTransferRepository {
	return &CachedTransferRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

type cachedTransfer struct {
	ID                 int64           `json:"id"`
	OperationID        string          `json:"operation_id"`
	SenderAccountID    string          `json:"sender_account_id"`
	RecipientAccountID string          `json:"recipient_account_id"`
	Currency           string          `json:"currency"`
	Amount             string          `json:"amount"`
	Status             string          `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
}

func idKey(id int64) string {
	return "id:" + strconv.FormatInt(id, 10)
}

func operationKey(operationID string) string {
	return "op:" + operationID
}

// Create delegates to the wrapped repository.
func (r *CachedTransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) (*domain.Transfer, error) {
	return r.next.Create(ctx, tx, transfer)
}

// GetByIDTx delegates to the wrapped repository; uncommitted state is never cached.
func (r *CachedTransferRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Transfer, error) {
	return r.next.GetByIDTx(ctx, tx, id)
}

// UpdateStatus delegates to the wrapped repository.
func (r *CachedTransferRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id int64, status domain.TransferStatus) error {
	return r.next.UpdateStatus(ctx, tx, id, status)
}

// GetByID reads through the cache.
func (r *CachedTransferRepository) GetByID(ctx context.Context, id int64) (*domain.Transfer, error) {
	if transfer, ok := r.lookup(ctx, idKey(id)); ok {
		return transfer, nil
	}

	transfer, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.store(ctx, transfer)
	return transfer, nil
}

// GetByOperationID reads through the cache.
func (r *CachedTransferRepository) GetByOperationID(ctx context.Context, operationID string) (*domain.Transfer, error) {
	if transfer, ok := r.lookup(ctx, operationKey(operationID)); ok {
		return transfer, nil
	}

	transfer, err := r.next.GetByOperationID(ctx, operationID)
	if err != nil {
		return nil, err
	}

	r.store(ctx, transfer)
	return transfer, nil
}

func (r *CachedTransferRepository) lookup(ctx context.Context, key string) (*domain.Transfer, bool) {
	raw, found, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("transfer cache read failed")
		return nil, false
	}
	if !found {
		return nil, false
	}

	var cached cachedTransfer
	if err := json.Unmarshal(raw, &cached); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return nil, false
	}

	amount, err := decimal.NewFromString(cached.Amount)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return nil, false
	}

	return &domain.Transfer{
		ID:                 cached.ID,
		OperationID:        cached.OperationID,
		SenderAccountID:    cached.SenderAccountID,
		RecipientAccountID: cached.RecipientAccountID,
		Currency:           cached.Currency,
		Amount:             amount,
		Status:             domain.TransferStatus(cached.Status),
		CreatedAt:          cached.CreatedAt,
	}, true
}

func (r *CachedTransferRepository) store(ctx context.Context, transfer *domain.Transfer) {
	if !transfer.Status.IsTerminal() {
		return
	}

	raw, err := json.Marshal(cachedTransfer{
		ID:                 transfer.ID,
		OperationID:        transfer.OperationID,
		SenderAccountID:    transfer.SenderAccountID,
		RecipientAccountID: transfer.RecipientAccountID,
		Currency:           transfer.Currency,
		Amount:             transfer.Amount.StringFixed(domain.MoneyScale),
		Status:             string(transfer.Status),
		CreatedAt:          transfer.CreatedAt,
	})
	if err != nil {
		return
	}

	for _, key := range []string{idKey(transfer.ID), operationKey(transfer.OperationID)} {
		if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("transfer cache write failed")
			return
		}
	}
}
