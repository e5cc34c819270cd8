package diag

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/mitchellh/hashstructure/v2"
)

// Journal is the optional on-disk diagnostic store config.debug.rfm
// enables: the rejections enumerate.CalculateRFWithCnstrnts records (see
// its doc comment) get persisted, keyed by structure/tuple index, the same
// db.Update/gob pattern PersistentResource uses to persist a single value.
type Journal struct {
	db *badger.DB
}

// OpenJournal opens (creating if absent) a badger store at dir.
func OpenJournal(dir string) (*Journal, error) {
	db, err := badger.Open(badger.DefaultOptions(dir))
	if err != nil {
		return nil, err
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Rejection is one journaled rejection record.
type Rejection struct {
	StructureIndex int
	TupleIndex     int
	Reason         string
}

func rejectionKey(structureIndex, tupleIndex int) string {
	return fmt.Sprintf("rej-%d-%d", structureIndex, tupleIndex)
}

// RecordRejection persists r, overwriting any prior record at the same key.
func (j *Journal) RecordRejection(r Rejection) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return err
	}
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(rejectionKey(r.StructureIndex, r.TupleIndex)), buf.Bytes())
	})
}

// LookupRejection returns the rejection record for (structureIndex,
// tupleIndex), if one was ever recorded.
func (j *Journal) LookupRejection(structureIndex, tupleIndex int) (Rejection, bool, error) {
	var out Rejection
	found := false
	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(rejectionKey(structureIndex, tupleIndex)))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&out)
		})
	})
	return out, found, err
}

// Fingerprint computes a stable hash of a concrete execution's RFMap plus
// final state, used to deduplicate verbose log lines across structurally
// identical executions reached via different tuple orders.
func Fingerprint(rfmapKeys []string, finalState map[string]string) (uint64, error) {
	return hashstructure.Hash(struct {
		RFMap      []string
		FinalState map[string]string
	}{RFMap: rfmapKeys, FinalState: finalState}, hashstructure.FormatV2, nil)
}
