// Package jsonfile serves a ledger exported to a JSON file through the
// store interfaces. Confirmed subscriptions and reports are kept in memory.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/store"
)

// Transaction is the file form of domain.Transaction. Date accepts
// YYYY-MM-DD or RFC 3339.
type Transaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	AccountID   string          `json:"account_id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Merchant    string          `json:"merchant"`
	CategoryID  int64           `json:"category_id"`
}

// Ledger is the file layout. A file holding a bare array is read as
// Transactions only.
type Ledger struct {
	Categories   []domain.Category          `json:"categories"`
	Transactions []Transaction              `json:"transactions"`
	Accounts     []domain.AccountSnapshot   `json:"accounts"`
	Liabilities  []domain.LiabilitySnapshot `json:"liabilities"`
	Properties   []domain.PropertySnapshot  `json:"properties"`
	Holdings     []domain.HoldingSnapshot   `json:"holdings"`
}

// Store implements store.Store over a parsed Ledger.
type Store struct {
	ledger Ledger
	txs    []domain.Transaction

	mu            sync.RWMutex
	subscriptions map[string]domain.Subscription
	reports       map[string]domain.Report
}

// Load reads and parses the ledger file at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Load: reading %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("Load: %s: %w", path, err)
	}
	return s, nil
}

// Parse builds a Store from ledger JSON.
func Parse(data []byte) (*Store, error) {
	var ledger Ledger
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &ledger.Transactions); err != nil {
			return nil, fmt.Errorf("Parse: decoding transactions: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &ledger); err != nil {
		return nil, fmt.Errorf("Parse: decoding ledger: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(ledger.Transactions))
	for i, ft := range ledger.Transactions {
		date, err := parseDate(ft.Date)
		if err != nil {
			return nil, fmt.Errorf("Parse: transaction %d: %w", i, err)
		}
		id := ft.ID
		if id == "" {
			id = fmt.Sprintf("tx-%d", i+1)
		}
		txs = append(txs, domain.Transaction{
			ID:          id,
			OwnerID:     ft.OwnerID,
			AccountID:   ft.AccountID,
			Date:        date,
			Amount:      ft.Amount,
			Description: ft.Description,
			Merchant:    ft.Merchant,
			CategoryID:  ft.CategoryID,
		})
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.Before(txs[j].Date) })

	return &Store{
		ledger:        ledger,
		txs:           txs,
		subscriptions: make(map[string]domain.Subscription),
		reports:       make(map[string]domain.Report),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is neither YYYY-MM-DD nor RFC 3339", s)
	}
	return t, nil
}

// owns reports whether a record tagged with owner belongs to ownerID.
// Untagged records belong to every owner.
func owns(owner, ownerID string) bool {
	return owner == "" || ownerID == "" || owner == ownerID
}

// QueryTransactionsByDateRange returns the owner's transactions whose
// calendar date falls within the calendar dates of [start, end], ordered by
// date.
func (s *Store) QueryTransactionsByDateRange(ctx context.Context, ownerID string, start, end time.Time) ([]domain.Transaction, error) {
	from, to := civil.DateOf(start), civil.DateOf(end)
	out := make([]domain.Transaction, 0)
	for _, tx := range s.txs {
		d := civil.DateOf(tx.Date)
		if !owns(tx.OwnerID, ownerID) || d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// ListActiveCategories returns the file's categories.
func (s *Store) ListActiveCategories(ctx context.Context) ([]domain.Category, error) {
	return append([]domain.Category(nil), s.ledger.Categories...), nil
}

// ListAccounts returns the file's accounts.
func (s *Store) ListAccounts(ctx context.Context, ownerID string) ([]domain.AccountSnapshot, error) {
	return append([]domain.AccountSnapshot(nil), s.ledger.Accounts...), nil
}

// ListLiabilities returns the file's liabilities.
func (s *Store) ListLiabilities(ctx context.Context, ownerID string) ([]domain.LiabilitySnapshot, error) {
	return append([]domain.LiabilitySnapshot(nil), s.ledger.Liabilities...), nil
}

// ListProperties returns the file's properties.
func (s *Store) ListProperties(ctx context.Context, ownerID string) ([]domain.PropertySnapshot, error) {
	return append([]domain.PropertySnapshot(nil), s.ledger.Properties...), nil
}

// ListHoldings returns the file's holdings.
func (s *Store) ListHoldings(ctx context.Context, ownerID string) ([]domain.HoldingSnapshot, error) {
	return append([]domain.HoldingSnapshot(nil), s.ledger.Holdings...), nil
}

func subscriptionKey(ownerID, normalizedKey string) string {
	return ownerID + "\x00" + normalizedKey
}

// ConfirmSubscription creates or replaces the owner's subscription with the
// same normalized key. A replaced subscription keeps its id.
func (s *Store) ConfirmSubscription(ctx context.Context, sub *domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := subscriptionKey(sub.OwnerID, sub.NormalizedKey)
	if existing, ok := s.subscriptions[key]; ok {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	}
	s.subscriptions[key] = *sub
	return nil
}

// ListSubscriptions returns the owner's subscriptions ordered by name.
func (s *Store) ListSubscriptions(ctx context.Context, ownerID string) ([]domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.OwnerID == ownerID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// InsertReport records report metadata.
func (s *Store) InsertReport(ctx context.Context, report *domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = *report
	return nil
}

// GetReport returns store.ErrNotFound for an unknown id.
func (s *Store) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("GetReport: %s: %w", id, store.ErrNotFound)
	}
	return &r, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

var _ store.Store = (*Store)(nil)
