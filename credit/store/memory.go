// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/crediario/credit-engine/credit"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	clients map[string]*credit.Client
	credits map[string]*credit.Credit
	users   map[string]*credit.User // keyed by username
	seq     map[string]int          // insertion order for stable listings
	nextSeq int
}

func NewMemory() *Memory {
	return &Memory{
		clients: make(map[string]*credit.Client),
		credits: make(map[string]*credit.Credit),
		users:   make(map[string]*credit.User),
		seq:     make(map[string]int),
	}
}

func (m *Memory) SaveClient(_ context.Context, c *credit.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	if _, ok := m.clients[c.ID]; !ok {
		m.seq[c.ID] = m.nextSeq
		m.nextSeq++
	}
	m.clients[c.ID] = &cp
	return nil
}

func (m *Memory) GetClient(_ context.Context, id string) (*credit.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) ListClients(_ context.Context) ([]*credit.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*credit.Client, 0, len(m.clients))
	for _, c := range m.clients {
		cp := *c
		out = append(out, &cp)
	}
	sortByInsertion(out, m.seq, func(c *credit.Client) string { return c.ID })
	return out, nil
}

func (m *Memory) SaveCredit(_ context.Context, c *credit.Credit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.credits[c.ID]; !ok {
		m.seq[c.ID] = m.nextSeq
		m.nextSeq++
	}
	m.credits[c.ID] = c.Clone()
	return nil
}

func (m *Memory) GetCredit(_ context.Context, id string) (*credit.Credit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.credits[id]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

func (m *Memory) ListCredits(_ context.Context, status credit.Status) ([]*credit.Credit, error) {
	return m.listCredits(func(c *credit.Credit) bool { return c.Status == status })
}

func (m *Memory) ListAllCredits(_ context.Context) ([]*credit.Credit, error) {
	return m.listCredits(func(*credit.Credit) bool { return true })
}

func (m *Memory) ListCreditsByClient(_ context.Context, clientID string) ([]*credit.Credit, error) {
	return m.listCredits(func(c *credit.Credit) bool { return c.ClientID == clientID })
}

func (m *Memory) listCredits(keep func(*credit.Credit) bool) ([]*credit.Credit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*credit.Credit
	for _, c := range m.credits {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	sortByInsertion(out, m.seq, func(c *credit.Credit) string { return c.ID })
	return out, nil
}

func (m *Memory) DeleteCredit(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.credits[id]; !ok {
		return credit.ErrCreditNotFound
	}
	delete(m.credits, id)
	return nil
}

func (m *Memory) SaveUser(_ context.Context, u *credit.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*credit.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// sortByInsertion keeps listings stable across calls.
func sortByInsertion[T any](items []T, seq map[string]int, id func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		return seq[id(items[i])] < seq[id(items[j])]
	})
}
