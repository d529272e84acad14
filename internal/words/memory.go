package words

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
)

// MemoryDictionary is an in-process dictionary where every word is active.
// Safe for concurrent use.
type MemoryDictionary struct {
	mu    sync.RWMutex
	list  []Word
	index map[string]int // normalized -> position in list
}

// NewMemoryDictionary builds a dictionary from list, dropping duplicates.
func NewMemoryDictionary(list []Word) *MemoryDictionary {
	d := &MemoryDictionary{index: make(map[string]int, len(list))}
	for _, w := range list {
		d.add(w)
	}
	return d
}

func (d *MemoryDictionary) add(w Word) {
	if _, ok := d.index[w.Normalized]; ok {
		return
	}
	d.index[w.Normalized] = len(d.list)
	d.list = append(d.list, w)
}

// Add inserts words at runtime.
func (d *MemoryDictionary) Add(list ...Word) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, w := range list {
		d.add(w)
	}
}

// IsActive reports whether normalized is in the dictionary.
func (d *MemoryDictionary) IsActive(_ context.Context, normalized string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.index[normalized]
	return ok, nil
}

// PickRandom returns a uniformly random word using crypto/rand.
func (d *MemoryDictionary) PickRandom(_ context.Context) (Word, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.list) == 0 {
		return Word{}, ErrNoActiveWords
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(d.list))))
	if err != nil {
		return Word{}, err
	}
	return d.list[n.Int64()], nil
}

// Len returns the number of words.
func (d *MemoryDictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.list)
}
