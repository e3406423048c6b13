// Package store keeps a ledger of committed blocks in LevelDB.
package store

import (
	"bytes"
	"context"
	"fmt"

	xdr "github.com/nullstyle/go-xdr/xdr3"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.uber.org/zap"

	"github.com/spacemeshos/blockminer/logging"
	"github.com/spacemeshos/blockminer/shared"
)

var ErrNotFound = leveldb.ErrNotFound

const recordPrefix = "run/"

// Record describes one committed run.
type Record struct {
	RunID        string
	Block        []byte
	Digest       string
	Difficulty   uint32
	Workers      uint32
	Winner       uint32
	ElapsedNanos int64
	// CommittedAt is in unix nanoseconds.
	CommittedAt int64
}

type Ledger struct {
	db *leveldb.DB
}

func Open(dir string) (*Ledger, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: opening ledger @ %s: %w", shared.ErrIO, dir, err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func key(runID string) []byte {
	return []byte(recordPrefix + runID)
}

func (l *Ledger) Record(ctx context.Context, rec Record) error {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, &rec); err != nil {
		return fmt.Errorf("serializing record of run %s: %w", rec.RunID, err)
	}
	if err := l.db.Put(key(rec.RunID), buf.Bytes(), &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("%w: storing record of run %s: %w", shared.ErrIO, rec.RunID, err)
	}
	logging.FromContext(ctx).Debug("recorded run", zap.String("run", rec.RunID), zap.Int("bytes", buf.Len()))
	return nil
}

func (l *Ledger) Get(ctx context.Context, runID string) (*Record, error) {
	data, err := l.db.Get(key(runID), nil)
	if err != nil {
		return nil, fmt.Errorf("get record of run %s: %w", runID, err)
	}
	return decode(data)
}

// All returns every record, ordered by run ID.
func (l *Ledger) All(ctx context.Context) ([]Record, error) {
	iter := l.db.NewIterator(util.BytesPrefix([]byte(recordPrefix)), nil)
	defer iter.Release()

	var records []Record
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := decode(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", iter.Key(), err)
		}
		records = append(records, *rec)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: iterating ledger: %w", shared.ErrIO, err)
	}
	return records, nil
}

func decode(data []byte) (*Record, error) {
	rec := &Record{}
	if _, err := xdr.Unmarshal(bytes.NewReader(data), rec); err != nil {
		return nil, fmt.Errorf("deserializing record: %w", err)
	}
	return rec, nil
}
