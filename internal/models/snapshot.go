package models

import (
	"fmt"
	"time"
)

// Resource names one backend collection.
type Resource string

const (
	ResourceAccounts     Resource = "accounts"
	ResourceThirdParties Resource = "third_parties"
	ResourceTransactions Resource = "transactions"
	ResourceCategories   Resource = "categories"
)

// AllResources lists every resource in a stable order.
var AllResources = []Resource{
	ResourceAccounts,
	ResourceThirdParties,
	ResourceTransactions,
	ResourceCategories,
}

// ParseResource validates a resource name.
func ParseResource(s string) (Resource, error) {
	r := Resource(s)
	for _, known := range AllResources {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown resource '%s'", s)
}

// Snapshot is the data cache content at one point in time. An installed snapshot is never
// modified: a reload builds a new one with Clone and replaces it wholesale.
type Snapshot struct {
	Accounts     []Account
	ThirdParties []ThirdParty
	Transactions []Transaction
	Categories   []Category
	LoadedAt     map[Resource]time.Time
	// Generations records, per resource, the sequence number of the load that fetched it.
	// A higher number means the load started later.
	Generations map[Resource]uint64
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		LoadedAt:    make(map[Resource]time.Time),
		Generations: make(map[Resource]uint64),
	}
}

// Clone returns a snapshot sharing the entity slices of s; replacing a slice on the clone
// leaves s untouched.
func (s *Snapshot) Clone() *Snapshot {
	next := NewSnapshot()
	if s == nil {
		return next
	}
	next.Accounts = s.Accounts
	next.ThirdParties = s.ThirdParties
	next.Transactions = s.Transactions
	next.Categories = s.Categories
	for r, t := range s.LoadedAt {
		next.LoadedAt[r] = t
	}
	for r, g := range s.Generations {
		next.Generations[r] = g
	}
	return next
}

// Adopt replaces the data of resource r with the one held by from.
func (s *Snapshot) Adopt(from *Snapshot, r Resource) {
	switch r {
	case ResourceAccounts:
		s.Accounts = from.Accounts
	case ResourceThirdParties:
		s.ThirdParties = from.ThirdParties
	case ResourceTransactions:
		s.Transactions = from.Transactions
	case ResourceCategories:
		s.Categories = from.Categories
	default:
		return
	}
	if t, ok := from.LoadedAt[r]; ok {
		s.LoadedAt[r] = t
	} else {
		delete(s.LoadedAt, r)
	}
	s.Generations[r] = from.Generations[r]
}

// Generation returns the load sequence number of resource r, zero when never loaded.
func (s *Snapshot) Generation(r Resource) uint64 {
	if s == nil {
		return 0
	}
	return s.Generations[r]
}

// Target clears the slice holding resource r and returns a pointer to it, suitable as a
// JSON decode target. Clearing detaches the slice from any snapshot s was cloned from.
func (s *Snapshot) Target(r Resource) (any, error) {
	switch r {
	case ResourceAccounts:
		s.Accounts = nil
		return &s.Accounts, nil
	case ResourceThirdParties:
		s.ThirdParties = nil
		return &s.ThirdParties, nil
	case ResourceTransactions:
		s.Transactions = nil
		return &s.Transactions, nil
	case ResourceCategories:
		s.Categories = nil
		return &s.Categories, nil
	}
	return nil, fmt.Errorf("unknown resource '%s'", r)
}

// Len returns the number of cached entities for resource r.
func (s *Snapshot) Len(r Resource) int {
	if s == nil {
		return 0
	}
	switch r {
	case ResourceAccounts:
		return len(s.Accounts)
	case ResourceThirdParties:
		return len(s.ThirdParties)
	case ResourceTransactions:
		return len(s.Transactions)
	case ResourceCategories:
		return len(s.Categories)
	}
	return 0
}

// Loaded reports whether resource r has been fetched at least once.
func (s *Snapshot) Loaded(r Resource) bool {
	if s == nil {
		return false
	}
	_, ok := s.LoadedAt[r]
	return ok
}
