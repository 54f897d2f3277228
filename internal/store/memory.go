package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is the in-process Store + Watcher used by tests and local runs.
// Documents round-trip through JSON so it behaves like PG, not like a map
// of live pointers.
type Memory struct {
	mu   sync.Mutex
	seq  int
	docs map[string]map[string]memDoc // collection -> key -> doc
	subs map[string][]chan string
}

type memDoc struct {
	owner string
	raw   []byte
	seq   int
}

func NewMemory() *Memory {
	return &Memory{
		docs: map[string]map[string]memDoc{},
		subs: map[string][]chan string{},
	}
}

var (
	_ Store   = (*Memory)(nil)
	_ Watcher = (*Memory)(nil)
)

func (m *Memory) Get(ctx context.Context, collection, key string, out any) error {
	m.mu.Lock()
	d, ok := m.docs[collection][key]
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(d.raw, out)
}

func (m *Memory) Upsert(ctx context.Context, collection, key, owner string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if m.docs[collection] == nil {
		m.docs[collection] = map[string]memDoc{}
	}
	seq := m.nextSeq()
	m.docs[collection][key] = memDoc{owner: owner, raw: raw, seq: seq}
	m.notifyLocked(collection, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, key, owner string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[collection][key]; !ok {
		return ErrNotFound
	}
	m.docs[collection][key] = memDoc{owner: owner, raw: raw, seq: m.nextSeq()}
	m.notifyLocked(collection, key)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, key string) error {
	m.mu.Lock()
	delete(m.docs[collection], key)
	m.notifyLocked(collection, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) ListOwned(ctx context.Context, collection, owner string) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type entry struct {
		raw []byte
		seq int
	}
	var entries []entry
	for _, d := range m.docs[collection] {
		if d.owner == owner {
			entries = append(entries, entry{d.raw, d.seq})
		}
	}
	// insertion order, matching PG's ORDER BY updated_at
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].seq < entries[j-1].seq; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	var out []json.RawMessage
	for _, e := range entries {
		out = append(out, json.RawMessage(e.raw))
	}
	return out, nil
}

func (m *Memory) Watch(ctx context.Context, collection string, fn func(key string)) (Unsubscribe, error) {
	ch := make(chan string, 64)
	m.mu.Lock()
	m.subs[collection] = append(m.subs[collection], ch)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case k := <-ch:
				fn(k)
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			m.mu.Lock()
			subs := m.subs[collection]
			for i, c := range subs {
				if c == ch {
					m.subs[collection] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			m.mu.Unlock()
		})
	}, nil
}

func (m *Memory) nextSeq() int {
	m.seq++
	return m.seq
}

func (m *Memory) notifyLocked(collection, key string) {
	for _, ch := range m.subs[collection] {
		select {
		case ch <- key:
		default: // slow subscriber drops the hint; next write will re-fire
		}
	}
}
