// Package catalog persists decomposition results in a badger store, so the
// relative stabilizer weights of a diagram computed once are replayed across
// runs and shared between processes.
package catalog

import (
	"encoding/binary"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/zxcalc/gozx"
)

/***

Catalog database format:

	gCatalogStateKey => CatalogState (varint MajorVers, MinorVers, NumEntries)

	gEntryPrefix, CanonicalEncoding => ScalarsLSM

A catalog entry's key is the canonical byte form of a closed unit-scalar
diagram; its value is the LSM encoding of the relative terminal scalars of
that diagram's full decomposition. Replaying an entry against any isomorphic
occurrence only needs a scale by the occurrence's own Scalar.

***/

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
	gEntryPrefix     = []byte{0x02}
)

const (
	catalogMajorVers = 2026
	catalogMinorVers = 1
)

type CatalogOpts struct {
	// DbPathName is the store's directory. Empty means a memory-only
	// catalog that vanishes on Close.
	DbPathName string
	ReadOnly   bool
}

func DefaultCatalogOpts() CatalogOpts {
	return CatalogOpts{}
}

type catalogState struct {
	MajorVers  int64
	MinorVers  int64
	NumEntries int64
}

// Catalog implements gozx.DecompCache on a badger store.
type Catalog struct {
	db         *badger.DB
	readOnly   bool
	hits       atomic.Int64
	stateMu    sync.Mutex
	state      catalogState
	stateDirty bool
}

func OpenCatalog(opts CatalogOpts) (*Catalog, error) {
	cat := &Catalog{
		readOnly: opts.ReadOnly,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // not needed so disable for performance
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(gozx.ErrBadCatalogParam, "DbPathName must be specified for a read-only catalog")
		}
		dbOpts.InMemory = true
	}

	var err error
	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = true
		cat.state.MajorVers = catalogMajorVers
		cat.state.MinorVers = catalogMinorVers
	}
	if err == nil && (cat.state.MajorVers != catalogMajorVers || cat.state.MinorVers != catalogMinorVers) {
		err = errors.Wrap(gozx.ErrBadCatalogParam, "catalog version is incompatible")
	}
	if err != nil {
		cat.Close()
		return nil, err
	}
	return cat, nil
}

func (cat *Catalog) IsReadOnly() bool {
	return cat.readOnly
}

// Load returns the stored relative scalars for a canonical diagram key.
func (cat *Catalog) Load(key []byte) ([]*gozx.Scalar, bool, error) {
	var rel []*gozx.Scalar
	found := false
	err := cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cat.entryKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rel, err = gozx.ParseScalarsLSM(val)
			if err == nil {
				found = true
			}
			return err
		})
	})
	if err != nil {
		return nil, false, err
	}
	return rel, found, nil
}

// Save stores the relative scalars for a canonical diagram key.
// An existing entry is kept; first write wins.
func (cat *Catalog) Save(key []byte, rel []*gozx.Scalar) error {
	if cat.readOnly {
		return errors.Wrap(gozx.ErrBadCatalogParam, "catalog is read-only")
	}
	entryKey := cat.entryKey(key)
	added := false
	err := cat.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(entryKey)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		added = true
		return txn.Set(entryKey, gozx.AppendScalarsLSM(nil, rel))
	})
	if err == nil && added {
		cat.stateMu.Lock()
		cat.state.NumEntries++
		cat.stateDirty = true
		cat.stateMu.Unlock()
	}
	return err
}

// Lookup implements gozx.DecompCache. Store errors on a writable catalog
// poison the run; see Save for the error-returning form.
func (cat *Catalog) Lookup(key []byte) ([]*gozx.Scalar, bool) {
	rel, found, err := cat.Load(key)
	if err != nil || !found {
		return nil, false
	}
	cat.hits.Add(1)
	return rel, true
}

// Store implements gozx.DecompCache. A read-only catalog drops the write.
func (cat *Catalog) Store(key []byte, rel []*gozx.Scalar) {
	if cat.readOnly {
		return
	}
	if err := cat.Save(key, rel); err != nil {
		panic(err)
	}
}

func (cat *Catalog) Hits() int64 {
	return cat.hits.Load()
}

func (cat *Catalog) Entries() int64 {
	cat.stateMu.Lock()
	defer cat.stateMu.Unlock()
	return cat.state.NumEntries
}

func (cat *Catalog) entryKey(key []byte) []byte {
	out := make([]byte, 0, len(gEntryPrefix)+len(key))
	out = append(out, gEntryPrefix...)
	return append(out, key...)
}

func (cat *Catalog) loadState() error {
	return cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err == nil {
			err = item.Value(func(val []byte) error {
				return cat.state.unmarshal(val)
			})
		}
		return err
	})
}

func (cat *Catalog) flushState() {
	cat.stateMu.Lock()
	defer cat.stateMu.Unlock()
	if !cat.stateDirty || cat.readOnly {
		return
	}
	err := cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gCatalogStateKey, cat.state.marshal(nil))
	})
	if err != nil {
		panic(err)
	}
	cat.stateDirty = false
}

func (cat *Catalog) Close() error {
	if cat.db == nil {
		return nil
	}
	if !cat.db.IsClosed() {
		cat.flushState()
	}
	err := cat.db.Close()
	cat.db = nil
	return err
}

func (state *catalogState) marshal(buf []byte) []byte {
	buf = binary.AppendVarint(buf, state.MajorVers)
	buf = binary.AppendVarint(buf, state.MinorVers)
	buf = binary.AppendVarint(buf, state.NumEntries)
	return buf
}

func (state *catalogState) unmarshal(in []byte) error {
	pos := 0
	for _, field := range []*int64{&state.MajorVers, &state.MinorVers, &state.NumEntries} {
		v, n := binary.Varint(in[pos:])
		if n <= 0 {
			return errors.Wrap(gozx.ErrBadEncoding, "catalog state")
		}
		*field = v
		pos += n
	}
	return nil
}
