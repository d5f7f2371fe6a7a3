// Package history provides an opt-in, append-only archive of chat messages.
//
// The archive is strictly write-side: room logs served to clients always come
// from the in-memory room store, so room lifecycle semantics are unchanged.
// What the archive adds is a durable copy that survives a room going empty,
// which the in-memory store deliberately discards.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Entry is one archived message.
type Entry struct {
	ID   uuid.UUID `json:"id"`
	Room string    `json:"room"`
	User string    `json:"user"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Archive records messages as they are appended to rooms. Implementations are
// best-effort collaborators: a Record failure is reported to the caller for
// logging but must never affect message delivery.
type Archive interface {
	Record(room, user, text string) error
	RoomLog(room string) ([]Entry, error)
	Close() error
}

// Noop discards every record. It is the archive used when no history
// directory is configured.
type Noop struct{}

// Record discards the message.
func (Noop) Record(string, string, string) error { return nil }

// RoomLog always reports an empty log.
func (Noop) RoomLog(string) ([]Entry, error) { return nil, nil }

// Close is a no-op.
func (Noop) Close() error { return nil }

// Badger persists entries in a BadgerDB. Keys are
// "msg:<room>:<19-digit zero-padded unixnano>:<uuid>" so an ascending prefix
// scan over one room yields its messages in chronological order; the uuid
// disambiguates entries recorded in the same nanosecond.
type Badger struct {
	db *badger.DB
}

// Open opens (or creates) the archive database at dir.
func Open(dir string) (*Badger, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open history archive at %s: %w", dir, err)
	}
	return &Badger{db: db}, nil
}

// OpenInMemory opens an archive backed by an in-memory BadgerDB. Nothing is
// written to disk; intended for tests.
func OpenInMemory() (*Badger, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory history archive: %w", err)
	}
	return &Badger{db: db}, nil
}

func entryKey(e Entry) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", e.Room, e.At.UnixNano(), e.ID))
}

// Record stores one message under a fresh uuid with the current timestamp.
func (b *Badger) Record(room, user, text string) error {
	e := Entry{
		ID:   uuid.New(),
		Room: room,
		User: user,
		Text: text,
		At:   time.Now().UTC(),
	}
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(e), value)
	})
}

// RoomLog returns every archived entry for room in chronological order.
func (b *Badger) RoomLog(room string) ([]Entry, error) {
	prefix := []byte("msg:" + room + ":")
	var raw [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(func(v []byte) error {
				raw = append(raw, append([]byte(nil), v...))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var unmarshalErr error
	entries := lo.Map(raw, func(v []byte, _ int) Entry {
		var e Entry
		if err := json.Unmarshal(v, &e); err != nil && unmarshalErr == nil {
			unmarshalErr = err
		}
		return e
	})
	if unmarshalErr != nil {
		return nil, unmarshalErr
	}
	return entries, nil
}

// Close flushes and closes the underlying database.
func (b *Badger) Close() error {
	return b.db.Close()
}
