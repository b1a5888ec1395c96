// Package storage persists an operator audit trail of issued
// transactions. The request path only ever appends; nothing in request
// handling reads it back.
package storage

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Record describes one unsigned transaction handed to a client. Amounts
// are display-unit strings, already formatted at the boundary.
type Record struct {
	Time      time.Time `json:"time"`
	Kind      string    `json:"kind"` // "fill" or "create"
	OrderID   uint64    `json:"orderId"`
	Amount    string    `json:"amount"`
	Value     string    `json:"value"`
	Requestor string    `json:"requestor"`
}

// AuditLog is an append-only pebble keyspace of issued-transaction
// records, keyed a:<8-byte big-endian sequence>.
type AuditLog struct {
	db  *pebble.DB
	log *zap.Logger

	mu  sync.Mutex
	seq uint64
}

const auditPrefix = "a:"

func auditKey(seq uint64) []byte {
	key := make([]byte, len(auditPrefix)+8)
	copy(key, auditPrefix)
	binary.BigEndian.PutUint64(key[len(auditPrefix):], seq)
	return key
}

// OpenAuditLog opens (or creates) the log at path and recovers the next
// sequence number from the highest existing key.
func OpenAuditLog(path string, log *zap.Logger) (*AuditLog, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("storage: open audit log: %w", err)
	}
	l := &AuditLog{db: db, log: log}

	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: auditKey(0),
		UpperBound: []byte(auditPrefix + "\xff"),
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	if iter.Last() && len(iter.Key()) == len(auditPrefix)+8 {
		l.seq = binary.BigEndian.Uint64(iter.Key()[len(auditPrefix):]) + 1
	}
	if err := iter.Close(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *AuditLog) Close() error { return l.db.Close() }

// Append records one issued transaction. Callers on the request path
// treat a failure as log-and-continue; the client already has its
// transaction.
func (l *AuditLog) Append(rec Record) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	l.mu.Lock()
	seq := l.seq
	l.seq++
	l.mu.Unlock()
	if err := l.db.Set(auditKey(seq), val, pebble.Sync); err != nil {
		return fmt.Errorf("storage: append audit record: %w", err)
	}
	return nil
}

// Tail returns up to limit most recent records, newest first.
func (l *AuditLog) Tail(limit int) ([]Record, error) {
	iter, err := l.db.NewIter(&pebble.IterOptions{
		LowerBound: auditKey(0),
		UpperBound: []byte(auditPrefix + "\xff"),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Record
	for ok := iter.Last(); ok && len(out) < limit; ok = iter.Prev() {
		var rec Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			l.log.Warn("audit_record_corrupt", zap.Binary("key", iter.Key()), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, iter.Error()
}
