package repositories

import (
	"crypto/x509"
	"cryptochat/certs"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
)

// InspectRow describes one badger entry for the debug inspector and cmd/inspect.
// Secrets under kv: are never shown.
func InspectRow(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)

	switch {
	case strings.HasPrefix(key, "msg:"):
		row.Type = "MESSAGE"
		var m DiskMessage
		if err := json.Unmarshal(val, &m); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Detail = fmt.Sprintf("%s: %s", m.SenderName, m.Content)
		row.Scores = m.Lang

	case strings.HasPrefix(key, userPrefix):
		row.Type = "USER"
		var u diskUser
		if err := json.Unmarshal(val, &u); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		fingerprint := "unparsable certificate"
		if cert, err := x509.ParseCertificate(u.Cert); err == nil {
			fingerprint = certs.Fingerprint(cert)
		}
		row.Detail = fingerprint
		row.Scores = fmt.Sprintf("verified:%t", u.Verified)

	case strings.HasPrefix(key, roomPrefix):
		row.Type = "ROOM"
		var joined time.Time
		if err := joined.UnmarshalBinary(val); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Detail = "joined " + joined.Format(time.RFC3339)

	case strings.HasPrefix(key, "kv:"):
		row.Type = "KV"
		row.Detail = fmt.Sprintf("%d bytes", len(val))
		if key == keyUsername {
			row.Detail = string(val)
		}
	}
	return row
}

// Inspect maps every entry under prefix, in key order. An empty prefix scans everything.
func Inspect(db *badger.DB, prefix string) ([]database.InspectRow, error) {
	var rows []database.InspectRow
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if err := item.Value(func(val []byte) error {
				rows = append(rows, InspectRow(key, val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return rows, err
}
