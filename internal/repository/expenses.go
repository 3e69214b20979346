package repository

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/receiptwise/receiptwise/internal/common"
	"github.com/receiptwise/receiptwise/internal/entity"
)

// ExpenseFilter narrows List results. Zero values mean "no constraint".
type ExpenseFilter struct {
	StartDate string // inclusive, YYYY-MM-DD
	EndDate   string // inclusive, YYYY-MM-DD
	Category  string
	MinAmount *float64
	MaxAmount *float64
	Vendor    string // case-insensitive substring
	Tag       string // exact tag membership
	Search    string // case-insensitive over vendor, notes, receipt_number
}

// ExpenseRepository is the storage boundary for expense documents.
// Every operation is scoped to one user.
type ExpenseRepository interface {
	Create(userID string, exp *entity.Expense) error
	GetByID(userID, expenseID string) (*entity.Expense, error)
	Update(userID string, exp *entity.Expense) error
	Delete(userID, expenseID string) error
	BulkDelete(userID string, expenseIDs []string) (int, error)
	List(userID string, filter ExpenseFilter) ([]*entity.Expense, error)
}

type expenseRepository struct {
	db     *bbolt.DB
	logger *slog.Logger
}

func NewExpenseRepository(db *bbolt.DB, logger *slog.Logger) ExpenseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &expenseRepository{db: db, logger: logger}
}

// key scopes expense documents by user so listings never cross accounts.
func expenseKey(userID, expenseID string) []byte {
	return []byte(userID + "/" + expenseID)
}

func (r *expenseRepository) Create(userID string, exp *entity.Expense) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expensesBucket))
		data, err := json.Marshal(exp)
		if err != nil {
			return fmt.Errorf("marshaling expense: %w", err)
		}
		return bucket.Put(expenseKey(userID, exp.ExpenseID), data)
	})
}

func (r *expenseRepository) GetByID(userID, expenseID string) (*entity.Expense, error) {
	var exp *entity.Expense
	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expensesBucket))
		data := bucket.Get(expenseKey(userID, expenseID))
		if data == nil {
			return common.ErrNotFound
		}
		return json.Unmarshal(data, &exp)
	})
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func (r *expenseRepository) Update(userID string, exp *entity.Expense) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expensesBucket))
		key := expenseKey(userID, exp.ExpenseID)
		if bucket.Get(key) == nil {
			return common.ErrNotFound
		}
		data, err := json.Marshal(exp)
		if err != nil {
			return fmt.Errorf("marshaling expense: %w", err)
		}
		return bucket.Put(key, data)
	})
}

func (r *expenseRepository) Delete(userID, expenseID string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expensesBucket))
		key := expenseKey(userID, expenseID)
		if bucket.Get(key) == nil {
			return common.ErrNotFound
		}
		return bucket.Delete(key)
	})
}

func (r *expenseRepository) BulkDelete(userID string, expenseIDs []string) (int, error) {
	deleted := 0
	err := r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expensesBucket))
		for _, id := range expenseIDs {
			key := expenseKey(userID, id)
			if bucket.Get(key) == nil {
				continue
			}
			if err := bucket.Delete(key); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// List scans the user's documents, applies the filter in memory, and
// returns results sorted by date descending.
func (r *expenseRepository) List(userID string, filter ExpenseFilter) ([]*entity.Expense, error) {
	prefix := []byte(userID + "/")
	expenses := make([]*entity.Expense, 0)

	err := r.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(expensesBucket)).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var exp entity.Expense
			if err := json.Unmarshal(v, &exp); err != nil {
				return fmt.Errorf("unmarshaling expense: %w", err)
			}
			if matches(&exp, filter) {
				expenses = append(expenses, &exp)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(expenses, func(i, j int) bool {
		return expenses[i].Date > expenses[j].Date
	})
	return expenses, nil
}

func matches(exp *entity.Expense, f ExpenseFilter) bool {
	if f.StartDate != "" && exp.Date < f.StartDate {
		return false
	}
	if f.EndDate != "" && exp.Date > f.EndDate {
		return false
	}
	if f.Category != "" && exp.Category != f.Category {
		return false
	}
	if f.MinAmount != nil && exp.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && exp.Amount > *f.MaxAmount {
		return false
	}
	if f.Vendor != "" && !containsFold(exp.Vendor, f.Vendor) {
		return false
	}
	if f.Tag != "" && !hasTag(exp.Tags, f.Tag) {
		return false
	}
	if f.Search != "" {
		notes := ""
		if exp.Notes != nil {
			notes = *exp.Notes
		}
		receiptNo := ""
		if exp.ReceiptNumber != nil {
			receiptNo = *exp.ReceiptNumber
		}
		if !containsFold(exp.Vendor, f.Search) &&
			!containsFold(notes, f.Search) &&
			!containsFold(receiptNo, f.Search) {
			return false
		}
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
