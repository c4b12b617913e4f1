// Package memory provides in-memory implementations of repository interfaces.
// It evaluates the same filter expressions as the SQL adapters and backs
// tests and local runs without a database.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"bookshelf/internal/common/filter"
	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
)

// Store holds all collections behind one lock.
type Store struct {
	mu           sync.RWMutex
	books        map[int64]entity.Book
	reviews      map[int64]entity.Review
	users        map[int64]entity.User
	nextBookID   int64
	nextReviewID int64
	now          func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		books:   make(map[int64]entity.Book),
		reviews: make(map[int64]entity.Review),
		users:   make(map[int64]entity.User),
		now:     time.Now,
	}
}

// AddUser registers a user so review listings can populate it.
func (s *Store) AddUser(u entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

type txKey struct{}

// undoLog holds the inverse of every write made inside one transaction.
// Entries are appended and replayed under Store.mu.
type undoLog struct{ steps []func() }

func txLog(ctx context.Context) *undoLog {
	u, _ := ctx.Value(txKey{}).(*undoLog)
	return u
}

// journalBook records how to put books[id] back to its current state.
// Callers hold s.mu.
func (s *Store) journalBook(ctx context.Context, id int64) {
	u := txLog(ctx)
	if u == nil {
		return
	}
	prev, existed := s.books[id]
	u.steps = append(u.steps, func() {
		if existed {
			s.books[id] = prev
		} else {
			delete(s.books, id)
		}
	})
}

// journalReview is journalBook for reviews.
func (s *Store) journalReview(ctx context.Context, id int64) {
	u := txLog(ctx)
	if u == nil {
		return
	}
	prev, existed := s.reviews[id]
	u.steps = append(u.steps, func() {
		if existed {
			s.reviews[id] = prev
		} else {
			delete(s.reviews, id)
		}
	})
}

func (s *Store) rollback(u *undoLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(u.steps) - 1; i >= 0; i-- {
		u.steps[i]()
	}
}

// Transactor gives all-or-nothing semantics by undoing the writes made
// through ctx when the work fails. Writes by other callers are untouched.
// Writes are visible to concurrent readers before commit, and IDs handed
// out inside a failed transaction are not reused.
type Transactor struct{ s *Store }

func NewTransactor(s *Store) *Transactor {
	return &Transactor{s: s}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txLog(ctx) != nil {
		return fn(ctx)
	}
	u := &undoLog{}
	if err := fn(context.WithValue(ctx, txKey{}, u)); err != nil {
		t.s.rollback(u)
		return err
	}
	return nil
}

// window filters, orders and truncates records the way the SQL adapters do.
func window[R record](all []R, q pagination.Query) ([]R, error) {
	var out []R
	for _, r := range all {
		ok, err := match(r, q.Filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}

	var sortErr error
	slices.SortFunc(out, func(a, b R) int {
		av, errA := lookup(a, q.Sort.Field)
		bv, errB := lookup(b, q.Sort.Field)
		if errA != nil || errB != nil {
			sortErr = cmp.Or(errA, errB)
			return 0
		}
		c, err := compareValues(av, bv)
		if err != nil {
			sortErr = err
		}
		c = cmp.Or(c, cmp.Compare(a.identity(), b.identity()))
		return c * int(q.Sort.Direction)
	})
	if sortErr != nil {
		return nil, sortErr
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func count[R record](all []R, expr filter.Expr) (int64, error) {
	var n int64
	for _, r := range all {
		ok, err := match(r, expr)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}
