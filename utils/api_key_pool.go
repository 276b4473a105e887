package utils

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrNoCredentials is returned when every key is cooling down or none are configured
var ErrNoCredentials = errors.New("no available access keys")

// CredentialPool rotates recognition-service access keys and benches keys
// the remote side rejected
type CredentialPool struct {
	keys        []string
	usageCounts map[string]int
	cooldown    map[string]time.Time
	now         func() time.Time
	mu          sync.Mutex
}

// NewCredentialPool creates a new pool; an empty key list yields a pool that never hands out keys
func NewCredentialPool(keys []string) *CredentialPool {
	return &CredentialPool{
		keys:        keys,
		usageCounts: make(map[string]int),
		cooldown:    make(map[string]time.Time),
		now:         time.Now,
	}
}

// Acquire returns an available key, preferring the least used ones
func (p *CredentialPool) Acquire() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	available := p.availableKeys()
	if len(available) == 0 {
		return "", ErrNoCredentials
	}

	minUsage := -1
	for _, key := range available {
		if count := p.usageCounts[key]; minUsage == -1 || count < minUsage {
			minUsage = count
		}
	}

	candidates := make([]string, 0, len(available))
	for _, key := range available {
		if p.usageCounts[key] == minUsage {
			candidates = append(candidates, key)
		}
	}

	selected := candidates[rand.Intn(len(candidates))]
	p.usageCounts[selected]++
	return selected, nil
}

// Bench takes a key out of rotation for the given duration
func (p *CredentialPool) Bench(key string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cooldown[key] = p.now().Add(d)
}

// Available reports how many keys can currently be handed out
func (p *CredentialPool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.availableKeys())
}

// availableKeys must be called with the lock held
func (p *CredentialPool) availableKeys() []string {
	now := p.now()
	available := make([]string, 0, len(p.keys))
	for _, key := range p.keys {
		if until, benched := p.cooldown[key]; benched {
			if now.Before(until) {
				continue
			}
			delete(p.cooldown, key)
		}
		available = append(available, key)
	}
	return available
}
