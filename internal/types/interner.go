// Package types holds the data model shared by every layer of the index:
// interned names, file and symbol identifiers, locations, and the symbol,
// call-edge, import, topology and search-document records described by the
// specification's data model.
package types

import "sync"

// Name is a process-lifetime handle for an interned string. Equality by
// handle is equivalent to string equality; handles are never reclaimed.
type Name uint32

// Interner assigns stable handles to strings. The zero value is not usable;
// construct with NewInterner. Safe for concurrent use.
type Interner struct {
	mu      sync.RWMutex
	byText  map[string]Name
	byIndex []string
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{
		byText:  make(map[string]Name, 1024),
		byIndex: make([]string, 0, 1024),
	}
}

// Intern returns the handle for text, assigning a new one on first sight.
func (in *Interner) Intern(text string) Name {
	in.mu.RLock()
	if n, ok := in.byText[text]; ok {
		in.mu.RUnlock()
		return n
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if n, ok := in.byText[text]; ok {
		return n
	}
	n := Name(len(in.byIndex))
	in.byIndex = append(in.byIndex, text)
	in.byText[text] = n
	return n
}

// Resolve returns the original string for a handle. Returns "" and false if
// the handle was never issued by this interner.
func (in *Interner) Resolve(n Name) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(n) < 0 || int(n) >= len(in.byIndex) {
		return "", false
	}
	return in.byIndex[n], true
}

// MustResolve is Resolve without the ok return, for call sites that hold a
// handle they know came from this interner.
func (in *Interner) MustResolve(n Name) string {
	s, _ := in.Resolve(n)
	return s
}

// Len reports how many distinct strings have been interned.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.byIndex)
}
