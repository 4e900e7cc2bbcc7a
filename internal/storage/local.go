// internal/storage/local.go
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
)

// Keys in the local KV. The layout matches the original browser storage:
// a JSON array of work orders and a decimal counter string.
const (
	keyWorkOrders = "workOrders"
	keyNextID     = "nextId"
)

// Local persists the record set to a KV backend. Write failures are the
// local equivalent of a storage-quota error: logged and swallowed, the
// in-memory state stays authoritative.
type Local struct {
	kv KV
}

func NewLocal(kv KV) *Local { return &Local{kv: kv} }

// Save writes the full set and counter. Always reports success to callers;
// failures only surface as warnings.
func (l *Local) Save(orders []models.WorkOrder, nextID int64) {
	data, err := json.Marshal(orders)
	if err != nil {
		slog.Warn("local store: marshal failed", "err", err)
		return
	}
	if err := l.kv.SetItem(keyWorkOrders, string(data)); err != nil {
		slog.Warn("local store: write failed", "key", keyWorkOrders, "err", err)
		return
	}
	if err := l.kv.SetItem(keyNextID, strconv.FormatInt(nextID, 10)); err != nil {
		slog.Warn("local store: write failed", "key", keyNextID, "err", err)
	}
}

// Load reads the set and counter back. Missing keys yield an empty set and
// counter 1; corrupt content is an error so the caller can decide.
func (l *Local) Load() ([]models.WorkOrder, int64, error) {
	raw, ok, err := l.kv.GetItem(keyWorkOrders)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", keyWorkOrders, err)
	}
	orders := []models.WorkOrder{}
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &orders); err != nil {
			return nil, 0, fmt.Errorf("decode %s: %w", keyWorkOrders, err)
		}
	}

	nextID := int64(1)
	if s, ok, err := l.kv.GetItem(keyNextID); err == nil && ok && s != "" {
		if n, perr := strconv.ParseInt(s, 10, 64); perr == nil && n > 0 {
			nextID = n
		} else {
			slog.Warn("local store: bad nextId value", "value", s)
		}
	} else if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", keyNextID, err)
	}
	return orders, nextID, nil
}

// Clear removes both keys, used on logout.
func (l *Local) Clear() {
	if err := l.kv.RemoveItem(keyWorkOrders); err != nil {
		slog.Warn("local store: remove failed", "key", keyWorkOrders, "err", err)
	}
	if err := l.kv.RemoveItem(keyNextID); err != nil {
		slog.Warn("local store: remove failed", "key", keyNextID, "err", err)
	}
}
