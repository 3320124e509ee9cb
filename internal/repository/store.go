package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Repositories groups every repository bound to the same connection or transaction.
type Repositories struct {
	Businesses    BusinessRepository
	Agents        AgentRepository
	Goals         GoalRepository
	Conversations ConversationRepository
	Messages      MessageRepository
	Training      TrainingRepository
	Usage         UsageRepository
	PhoneNumbers  PhoneNumberRepository
}

func newRepositories(db DBTX, logger *zap.Logger) *Repositories {
	return &Repositories{
		Businesses:    NewBusinessRepository(db, logger),
		Agents:        NewAgentRepository(db, logger),
		Goals:         NewGoalRepository(db, logger),
		Conversations: NewConversationRepository(db, logger),
		Messages:      NewMessageRepository(db, logger),
		Training:      NewTrainingRepository(db, logger),
		Usage:         NewUsageRepository(db, logger),
		PhoneNumbers:  NewPhoneNumberRepository(db, logger),
	}
}

// Store owns the connection pool and hands out repositories.
type Store struct {
	*Repositories
	db     *sqlx.DB
	logger *zap.Logger
}

func NewStore(db *sqlx.DB, logger *zap.Logger) *Store {
	return &Store{
		Repositories: newRepositories(db, logger),
		db:           db,
		logger:       logger,
	}
}

// InTx runs fn against repositories bound to a single transaction. The
// transaction is committed when fn returns nil and rolled back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(tx *Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(newRepositories(tx, s.logger)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

var clock struct {
	sync.Mutex
	last time.Time
}

// now returns a strictly increasing UTC timestamp at microsecond precision so
// rows written by this process keep their append order on every driver.
func now() time.Time {
	clock.Lock()
	defer clock.Unlock()
	t := time.Now().UTC().Truncate(time.Microsecond)
	if !t.After(clock.last) {
		t = clock.last.Add(time.Microsecond)
	}
	clock.last = t
	return t
}

func notFound(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(entity)
	}
	return err
}

func checkAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}

// setClause accumulates column assignments for allowlisted partial updates.
type setClause struct {
	cols []string
	args []interface{}
}

func (s *setClause) add(col string, val interface{}) {
	s.cols = append(s.cols, col+" = ?")
	s.args = append(s.args, val)
}

func (s *setClause) empty() bool { return len(s.cols) == 0 }

func (s *setClause) sql() string {
	return strings.Join(s.cols, ", ")
}
