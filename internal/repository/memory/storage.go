package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Tolits3/PanelX-Backend/internal/models"
	"github.com/Tolits3/PanelX-Backend/internal/repository"
)

// Storage is a map backed repository.Storage. It is the test double and the
// flat-file production mode: with a data dir set, every committed mutation is
// snapshotted to JSON files (see file.go), mirroring the original launch
// setup that kept credits and transactions in data/*.json.
//
// Account atomicity is per user: GetAccountForUpdate inside InTx acquires a
// per-account mutex that is held until the InTx scope ends, so concurrent
// debits on one account serialize while different accounts do not block each
// other.
type Storage struct {
	mu sync.RWMutex

	accounts     map[string]models.Account
	transactions map[string][]models.Transaction
	profiles     map[string]models.Profile
	series       map[uuid.UUID]models.Series
	episodes     map[uuid.UUID]models.Episode
	panels       map[uuid.UUID][]models.Panel
	progress     map[progressKey]models.Progress

	locksMu      sync.Mutex
	accountLocks map[string]*sync.Mutex

	// dir is empty for a purely in-memory storage
	dir string
}

type progressKey struct {
	UserID    string
	SeriesID  uuid.UUID
	EpisodeID uuid.UUID
}

func NewStorage() *Storage {
	return &Storage{
		accounts:     map[string]models.Account{},
		transactions: map[string][]models.Transaction{},
		profiles:     map[string]models.Profile{},
		series:       map[uuid.UUID]models.Series{},
		episodes:     map[uuid.UUID]models.Episode{},
		panels:       map[uuid.UUID][]models.Panel{},
		progress:     map[progressKey]models.Progress{},
		accountLocks: map[string]*sync.Mutex{},
	}
}

func (s *Storage) Account() repository.AccountRepo {
	return &accountRepo{s: s}
}

func (s *Storage) Transaction() repository.TransactionRepo {
	return &transactionRepo{s: s}
}

func (s *Storage) Profile() repository.ProfileRepo {
	return &profileRepo{s: s}
}

func (s *Storage) Series() repository.SeriesRepo {
	return &seriesRepo{s: s}
}

func (s *Storage) Progress() repository.ProgressRepo {
	return &progressRepo{s: s}
}

// InTx runs fn against a view that keeps account locks until fn returns.
// There is no rollback: ledger operations validate before the first write and
// in-memory writes cannot fail halfway, so a returned error simply means
// nothing past the validation point happened.
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	tx := &txStorage{parent: s, held: map[string]*sync.Mutex{}}
	defer tx.releaseLocks()

	return fn(tx)
}

// lockFor returns the mutex guarding one account, creating it on first use
func (s *Storage) lockFor(userID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.accountLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.accountLocks[userID] = l
	}

	return l
}

type txStorage struct {
	parent *Storage

	heldMu sync.Mutex
	held   map[string]*sync.Mutex
}

func (t *txStorage) Account() repository.AccountRepo {
	return &accountRepo{s: t.parent, tx: t}
}

func (t *txStorage) Transaction() repository.TransactionRepo {
	return &transactionRepo{s: t.parent}
}

func (t *txStorage) Profile() repository.ProfileRepo {
	return &profileRepo{s: t.parent}
}

func (t *txStorage) Series() repository.SeriesRepo {
	return &seriesRepo{s: t.parent}
}

func (t *txStorage) Progress() repository.ProgressRepo {
	return &progressRepo{s: t.parent}
}

// Nested InTx reuses the same lock scope
func (t *txStorage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	return fn(t)
}

func (t *txStorage) lockAccount(userID string) {
	t.heldMu.Lock()
	_, held := t.held[userID]
	t.heldMu.Unlock()
	if held {
		return
	}

	l := t.parent.lockFor(userID)
	l.Lock()

	t.heldMu.Lock()
	t.held[userID] = l
	t.heldMu.Unlock()
}

func (t *txStorage) releaseLocks() {
	t.heldMu.Lock()
	defer t.heldMu.Unlock()

	for _, l := range t.held {
		l.Unlock()
	}
	t.held = map[string]*sync.Mutex{}
}
