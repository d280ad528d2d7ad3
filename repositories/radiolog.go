//go:generate go run go.uber.org/mock/mockgen -source=radiolog.go -destination=../mocks/mock_radiolog_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"voicenet/domain"
)

// IRadioLogRepository persists the audit trail of control packets and
// operator log entries per net.
type IRadioLogRepository interface {
	Append(entry RadioLogEntry) error
	AppendPacket(packet domain.CommandBusPacket) error
	List(netID domain.NetID, cursor *string) ([]RadioLogEntry, *string, error)
}

// RadioLogEntry is one line of a net's audit log. Control packets and
// operator-written entries share the same keyspace.
type RadioLogEntry struct {
	ID      uuid.UUID                `json:"id"`
	NetID   domain.NetID             `json:"net_id"`
	Kind    string                   `json:"kind"`
	Author  string                   `json:"author"`
	Summary string                   `json:"summary"`
	Packet  *domain.CommandBusPacket `json:"packet,omitempty"`
	At      time.Time                `json:"at"`
}

type RadioLogRepository struct {
	db           *badger.DB
	log          *slog.Logger
	limitEntries *int
}

func NewRadioLogRepository(db *badger.DB, log *slog.Logger, limitEntries *int) *RadioLogRepository {
	return &RadioLogRepository{db: db, log: log, limitEntries: limitEntries}
}

// Append persists a radio log entry in BadgerDB.
// The key is formatted as "log:{net_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two entries
//     arrive at the same nanosecond.
func (r *RadioLogRepository) Append(entry RadioLogEntry) error {
	key := fmt.Sprintf("log:%s:%019d:%s",
		entry.NetID,
		entry.At.UnixNano(),
		entry.ID,
	)
	bytes, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// AppendPacket wraps a command-bus packet into an audit entry.
func (r *RadioLogRepository) AppendPacket(packet domain.CommandBusPacket) error {
	return r.Append(RadioLogEntry{
		ID:     uuid.New(),
		NetID:  packet.NetID,
		Kind:   string(packet.Type),
		Packet: &packet,
		At:     packet.SentAt,
	})
}

// List retrieves entries for a net using a reverse prefix scan, newest
// first. Thanks to the padded timestamp in the key, entries are naturally
// sorted by time. It stops once the configured limitEntries is reached.
func (r *RadioLogRepository) List(netID domain.NetID, cursor *string) ([]RadioLogEntry, *string, error) {
	var rawEntries [][]byte
	var lastKey string
	err := r.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("log:%s:", netID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible timestamp, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if r.limitEntries != nil && len(rawEntries) == *r.limitEntries {
				r.log.Debug(fmt.Sprintf("Maximum of %d radio log entries reached", *r.limitEntries))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				rawEntries = append(rawEntries, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	entries := make([]RadioLogEntry, 0, len(rawEntries))
	for _, b := range rawEntries {
		var entry RadioLogEntry
		if err = json.Unmarshal(b, &entry); err != nil {
			return nil, nil, err
		}
		entries = append(entries, entry)
	}
	return entries, &lastKey, nil
}
