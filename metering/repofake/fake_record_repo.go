package fakerecordrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/jrsteele09/enedis-gateway/metering"
)

var _ metering.Repo = (*FakeRecordRepo)(nil)

// FakeRecordRepo keeps readings in memory
type FakeRecordRepo struct {
	lock    sync.RWMutex
	seq     int64
	records []metering.Record

	// InsertErr, when set, is returned by InsertBatch instead of storing anything.
	InsertErr error
	// DeleteErr, when set, is returned by DeleteForUser.
	DeleteErr error
}

func NewFakeRecordRepo() *FakeRecordRepo {
	return &FakeRecordRepo{}
}

func (r *FakeRecordRepo) InsertBatch(_ context.Context, records []metering.Record) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.InsertErr != nil {
		return r.InsertErr
	}
	for _, rec := range records {
		r.seq++
		rec.ID = r.seq
		r.records = append(r.records, rec)
	}
	return nil
}

func (r *FakeRecordRepo) ListByUserAndType(_ context.Context, userID, recordType string) ([]metering.Record, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	out := make([]metering.Record, 0)
	for _, rec := range r.records {
		if rec.UserID == userID && rec.Type == recordType {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (r *FakeRecordRepo) DeleteForUser(_ context.Context, userID string) (int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.DeleteErr != nil {
		return 0, r.DeleteErr
	}
	kept := r.records[:0]
	var deleted int64
	for _, rec := range r.records {
		if rec.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return deleted, nil
}

// All returns a copy of every stored record, in insertion order
func (r *FakeRecordRepo) All() []metering.Record {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]metering.Record(nil), r.records...)
}
