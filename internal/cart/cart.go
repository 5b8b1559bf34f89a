package cart

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/Mepiyou/myfirstfront/internal/database"
	"github.com/Mepiyou/myfirstfront/internal/models"
)

// cartKey matches the localStorage key of the original web client.
const cartKey = "mff_cart_v1"

// Store is the client-local shopping cart, independent of server
// state. Every mutation rewrites the full entry list in one store
// transaction, so a crash between calls never leaves a half-applied
// cart.
type Store struct {
	db  *bolt.DB
	log *zap.Logger
}

func NewStore(db *bolt.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// Entries returns the cart in insertion order. A corrupt stored list is
// treated as empty rather than failing the caller, matching the
// original client's defensive read.
func (s *Store) Entries() ([]models.CartEntry, error) {
	var entries []models.CartEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(database.BucketCart).Get([]byte(cartKey))
		if len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, &entries); err != nil {
			s.log.Warn("discarding unreadable cart", zap.Error(err))
			entries = nil
		}
		return nil
	})
	return entries, err
}

// Add inserts the product with quantity 1, or increments the existing
// entry when the product is already in the cart.
func (s *Store) Add(p models.Product) error {
	return s.mutate(func(entries []models.CartEntry) []models.CartEntry {
		for i := range entries {
			if entries[i].ID == p.ID {
				entries[i].Quantity++
				return entries
			}
		}
		return append(entries, models.CartEntry{
			ID:        p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			ImageURL:  p.Image,
			Quantity:  1,
		})
	})
}

// Remove eliminates the entry entirely. Removing an absent product is a
// no-op.
func (s *Store) Remove(id string) error {
	return s.mutate(func(entries []models.CartEntry) []models.CartEntry {
		out := entries[:0]
		for _, e := range entries {
			if e.ID != id {
				out = append(out, e)
			}
		}
		return out
	})
}

// SetQuantity sets an existing entry's quantity, clamped to a minimum
// of 1. Unknown IDs are ignored.
func (s *Store) SetQuantity(id string, qty int) error {
	return s.adjust(id, func(int) int { return qty })
}

// Increment raises an entry's quantity by one.
func (s *Store) Increment(id string) error {
	return s.adjust(id, func(q int) int { return q + 1 })
}

// Decrement lowers an entry's quantity by one, never below 1.
func (s *Store) Decrement(id string) error {
	return s.adjust(id, func(q int) int { return q - 1 })
}

// Clear empties the cart.
func (s *Store) Clear() error {
	return s.mutate(func([]models.CartEntry) []models.CartEntry { return nil })
}

// Totals folds the cart into total quantity and total price
// (Σ quantity × unit price).
func (s *Store) Totals() (models.CartTotals, error) {
	entries, err := s.Entries()
	if err != nil {
		return models.CartTotals{}, err
	}
	var t models.CartTotals
	for _, e := range entries {
		t.Quantity += e.Quantity
		t.Price += float64(e.Quantity) * e.UnitPrice
	}
	return t, nil
}

func (s *Store) adjust(id string, f func(int) int) error {
	return s.mutate(func(entries []models.CartEntry) []models.CartEntry {
		for i := range entries {
			if entries[i].ID == id {
				entries[i].Quantity = max(1, f(entries[i].Quantity))
				break
			}
		}
		return entries
	})
}

// mutate runs read-modify-write against the stored list in a single
// transaction and persists the result synchronously.
func (s *Store) mutate(f func([]models.CartEntry) []models.CartEntry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(database.BucketCart)

		var entries []models.CartEntry
		if raw := b.Get([]byte(cartKey)); len(raw) > 0 {
			if err := json.Unmarshal(raw, &entries); err != nil {
				s.log.Warn("discarding unreadable cart", zap.Error(err))
				entries = nil
			}
		}

		entries = f(entries)
		if entries == nil {
			entries = []models.CartEntry{}
		}

		raw, err := json.Marshal(entries)
		if err != nil {
			return fmt.Errorf("encode cart: %w", err)
		}
		return b.Put([]byte(cartKey), raw)
	})
}

// FormatPrice renders a minor-unit-free FCFA amount the way the shop
// displays it: grouped thousands, no decimals for whole amounts.
func FormatPrice(n float64) string {
	whole := int64(n)
	digits := strconv.FormatInt(whole, 10)

	var b strings.Builder
	if whole < 0 {
		b.WriteByte('-')
		digits = digits[1:]
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}
	if frac := n - float64(whole); frac != 0 {
		b.WriteString(strings.TrimPrefix(strconv.FormatFloat(frac, 'f', 2, 64), "0"))
	}
	b.WriteString(" FCFA")
	return b.String()
}

// OrderMessage renders the cart as the checkout-via-messaging summary:
// one line per entry with its line total, then the grand total. An
// empty cart yields an empty message.
func (s *Store) OrderMessage() (string, error) {
	entries, err := s.Entries()
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("Récapitulatif de commande MyFirst Fragrances:\n")
	var total float64
	for _, e := range entries {
		line := float64(e.Quantity) * e.UnitPrice
		total += line
		fmt.Fprintf(&b, "- %s (x%d): %s\n", e.Name, e.Quantity, FormatPrice(line))
	}
	fmt.Fprintf(&b, "Total: %s\n", FormatPrice(total))
	b.WriteString("Merci pour votre commande !")
	return b.String(), nil
}
