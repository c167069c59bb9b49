package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/storage"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ErrClosed is returned by mutations on a store that has been closed.
var ErrClosed = errors.New("cart store closed")

// writeTimeout bounds a single background persistence call.
const writeTimeout = 5 * time.Second

// Store is the authoritative cart of one device. All mutations are
// serialized by mu; every successful mutation hands the full line sequence
// to the write-behind writer.
type Store struct {
	deviceID string
	logger   *slog.Logger

	mu     sync.Mutex
	lines  []domain.CartLine
	closed bool

	// detached stores never write: their record could not be read, so
	// whatever storage holds must not be overwritten.
	detached bool

	writer *writeBehind
}

// Open hydrates the cart of deviceID from st and starts its writer. A missing,
// unreadable or malformed record yields an empty cart; Open never fails.
// When storage itself could not be read the store is detached: it works in
// memory but never persists.
func Open(ctx context.Context, deviceID string, st storage.Storage, logger *slog.Logger) *Store {
	key := storage.Key(deviceID)
	log := logger.With(slog.String("device_id", deviceID))

	lines, err := hydrate(ctx, st, key, log)
	s := newStore(deviceID, lines, st, log)
	s.detached = err != nil
	return s
}

func newStore(deviceID string, lines []domain.CartLine, st storage.Storage, logger *slog.Logger) *Store {
	s := &Store{
		deviceID: deviceID,
		logger:   logger,
		lines:    lines,
		writer:   newWriteBehind(st, storage.Key(deviceID), logger),
	}
	go s.writer.run()
	return s
}

// hydrate returns the stored lines. Only a failed read is returned as an
// error; a missing or malformed record is an empty cart.
func hydrate(ctx context.Context, st storage.Storage, key string, logger *slog.Logger) ([]domain.CartLine, error) {
	data, err := st.Load(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			hydrationsTotal.WithLabelValues("empty").Inc()
			return nil, nil
		}
		hydrationsTotal.WithLabelValues("error").Inc()
		persistFailures.WithLabelValues("load").Inc()
		logger.WarnContext(ctx, "cart load failed, starting empty", slog.String("error", err.Error()))
		return nil, err
	}

	lines, err := Decode(data)
	if err != nil {
		hydrationsTotal.WithLabelValues("corrupt").Inc()
		persistFailures.WithLabelValues("decode").Inc()
		logger.WarnContext(ctx, "discarding malformed cart record", slog.String("error", err.Error()))
		return nil, nil
	}

	hydrationsTotal.WithLabelValues("loaded").Inc()
	return lines, nil
}

// Detached reports whether the store runs without persistence because its
// record could not be read.
func (s *Store) Detached() bool {
	return s.detached
}

// AddItem merges quantity into the line for product, appending a new line
// when the product is not in the cart yet.
func (s *Store) AddItem(product domain.Product, quantity int64) (domain.Cart, error) {
	if product.ID == "" {
		return domain.Cart{}, apperrors.InvalidInput("product id is required")
	}
	if quantity < 1 {
		return domain.Cart{}, apperrors.InvalidInput("quantity must be at least 1")
	}
	if err := validateProduct(product); err != nil {
		return domain.Cart{}, apperrors.InvalidInput("product " + product.ID + ": " + err.Error())
	}

	return s.mutate("add", func() {
		if i := s.indexOf(product.ID); i >= 0 {
			s.lines[i].Quantity += quantity
			return
		}
		s.lines = append(s.lines, domain.CartLine{Product: product, Quantity: quantity})
	})
}

// RemoveItem drops the line for productID. Removing an absent product is a
// no-op.
func (s *Store) RemoveItem(productID string) (domain.Cart, error) {
	return s.mutate("remove", func() {
		s.remove(productID)
	})
}

// UpdateQuantity sets the quantity of productID. A quantity of zero or less
// removes the line; an absent product is left absent.
func (s *Store) UpdateQuantity(productID string, quantity int64) (domain.Cart, error) {
	return s.mutate("update", func() {
		if quantity <= 0 {
			s.remove(productID)
			return
		}
		if i := s.indexOf(productID); i >= 0 {
			s.lines[i].Quantity = quantity
		}
	})
}

// Clear empties the cart.
func (s *Store) Clear() (domain.Cart, error) {
	return s.mutate("clear", func() {
		s.lines = nil
	})
}

// Snapshot returns a copy of the current cart.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []domain.CartLine {
	return s.Snapshot().Lines
}

// TotalItems returns the sum of quantities.
func (s *Store) TotalItems() int64 {
	return s.Snapshot().TotalItems()
}

// TotalPrice returns the sum of unit price times quantity, in minor units.
func (s *Store) TotalPrice() decimal.Decimal {
	return s.Snapshot().TotalPrice()
}

// Close flushes the pending snapshot and stops the writer. Further
// mutations fail with ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.writer.close()
}

func (s *Store) mutate(op string, fn func()) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Cart{}, ErrClosed
	}

	fn()
	mutationsTotal.WithLabelValues(op).Inc()
	s.persistLocked(op)
	return s.snapshotLocked(), nil
}

func (s *Store) persistLocked(op string) {
	if s.detached {
		return
	}
	if len(s.lines) == 0 {
		s.writer.submit(snapshot{})
		return
	}

	data, err := Encode(s.lines)
	if err != nil {
		persistFailures.WithLabelValues("encode").Inc()
		s.logger.Error("cart encode failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return
	}
	s.writer.submit(snapshot{data: data})
}

func (s *Store) snapshotLocked() domain.Cart {
	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	return domain.Cart{Lines: lines}
}

func (s *Store) indexOf(productID string) int {
	for i := range s.lines {
		if s.lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) remove(productID string) {
	if i := s.indexOf(productID); i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
}

// snapshot is one persisted state. A nil payload deletes the record.
type snapshot struct {
	data []byte
}

// writeBehind persists snapshots on its own goroutine. Only the latest
// pending snapshot is kept, so a burst of mutations costs one write.
type writeBehind struct {
	st     storage.Storage
	key    string
	logger *slog.Logger

	pending chan snapshot
	quit    chan struct{}
	done    chan struct{}
}

func newWriteBehind(st storage.Storage, key string, logger *slog.Logger) *writeBehind {
	return &writeBehind{
		st:      st,
		key:     key,
		logger:  logger,
		pending: make(chan snapshot, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// submit replaces any pending snapshot with snap. Callers must be serialized.
func (w *writeBehind) submit(snap snapshot) {
	for {
		select {
		case w.pending <- snap:
			return
		default:
		}
		select {
		case <-w.pending:
		default:
		}
	}
}

func (w *writeBehind) run() {
	defer close(w.done)
	for {
		select {
		case snap := <-w.pending:
			w.write(snap)
		case <-w.quit:
			select {
			case snap := <-w.pending:
				w.write(snap)
			default:
			}
			return
		}
	}
}

func (w *writeBehind) close() {
	close(w.quit)
	<-w.done
}

func (w *writeBehind) write(snap snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	op, err := "save", error(nil)
	if snap.data == nil {
		op = "delete"
		err = w.st.Delete(ctx, w.key)
	} else {
		err = w.st.Save(ctx, w.key, snap.data)
	}
	if err != nil {
		persistFailures.WithLabelValues(op).Inc()
		w.logger.Warn("cart persist failed",
			slog.String("op", op),
			slog.String("key", w.key),
			slog.String("error", err.Error()),
		)
	}
}
