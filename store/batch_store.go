package store

import (
	"fmt"

	"github.com/pkg/errors"
	tmjson "github.com/tendermint/tendermint/libs/json"
	"github.com/tendermint/tendermint/libs/log"
	tmdb "github.com/tendermint/tm-db"
	leveldb "github.com/tendermint/tm-db/goleveldb"

	"dagbft_demo/types"
)

// NewBatchStore opens a disk-backed archive for sealed batches under the
// given directory.
func NewBatchStore(name, dir string, logger log.Logger) (*BatchStore, error) {
	levelDB, err := leveldb.NewDB(name, dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open batch archive")
	}
	return NewBatchStoreWithDB(levelDB, logger), nil
}

func NewBatchStoreWithDB(kvdb tmdb.DB, logger log.Logger) *BatchStore {
	return &BatchStore{kvDB: kvdb, logger: logger}
}

// BatchStore archives sealed batches of rounds that were pruned from the
// shared in-memory state, so a long-running node keeps a bounded working set
// without losing history.
//
// key layout: batch/{round as fixed-width hex}/{validator address}
type BatchStore struct {
	kvDB tmdb.DB

	logger log.Logger
}

// SaveRound persists every sealed batch of a round in a single write batch.
func (bs *BatchStore) SaveRound(round uint64, batches map[types.Address]types.SealedBatch) error {
	if len(batches) == 0 {
		return nil
	}

	batch := bs.kvDB.NewBatch()
	defer batch.Close()

	for addr, sealed := range batches {
		bz, err := tmjson.Marshal(sealed)
		if err != nil {
			return errors.Wrapf(err, "failed to encode sealed batch for %v", addr)
		}
		if err := batch.Set(batchKey(round, addr), bz); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrapf(err, "failed to archive round %d", round)
	}

	bs.logger.Debug("archived round", "round", round, "batches", len(batches))
	return nil
}

// LoadRound reads back every sealed batch archived for a round. It returns
// nil when the round was never archived.
func (bs *BatchStore) LoadRound(round uint64) (map[types.Address]types.SealedBatch, error) {
	itr, err := bs.kvDB.Iterator(roundKey(round), roundKey(round+1))
	if err != nil {
		return nil, err
	}
	defer itr.Close()

	var batches map[types.Address]types.SealedBatch
	for ; itr.Valid(); itr.Next() {
		var sealed types.SealedBatch
		if err := tmjson.Unmarshal(itr.Value(), &sealed); err != nil {
			return nil, errors.Wrapf(err, "corrupt archive entry %s", itr.Key())
		}
		if batches == nil {
			batches = make(map[types.Address]types.SealedBatch)
		}
		batches[sealed.Batch.Author] = sealed
	}
	if err := itr.Error(); err != nil {
		return nil, err
	}
	return batches, nil
}

// HasRound reports whether any sealed batch was archived for the round.
func (bs *BatchStore) HasRound(round uint64) (bool, error) {
	itr, err := bs.kvDB.Iterator(roundKey(round), roundKey(round+1))
	if err != nil {
		return false, err
	}
	defer itr.Close()
	return itr.Valid(), nil
}

func (bs *BatchStore) GetDB() tmdb.DB {
	return bs.kvDB
}

// Close releases the underlying database handle.
func (bs *BatchStore) Close() error {
	return bs.kvDB.Close()
}

// roundKey is the common prefix of every batch archived for a round. The
// fixed-width hex encoding keeps rounds iterable in numeric order.
func roundKey(round uint64) []byte {
	return []byte(fmt.Sprintf("batch/%016x/", round))
}

func batchKey(round uint64, addr types.Address) []byte {
	return append(roundKey(round), addr.String()...)
}
