// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package grammar

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/fieldcode/models"
)

// Cache builds each form's grammar once and shares it by form id.
// Concurrent first requests for the same form share one build.
type Cache struct {
	mu       sync.RWMutex
	grammars map[string]*Grammar
	group    singleflight.Group
	builds   int
}

func NewCache() *Cache {
	return &Cache{grammars: make(map[string]*Grammar)}
}

// Get returns the cached grammar for form, building it on first use.
// Build failures are not cached.
func (c *Cache) Get(form *models.FormDefinition) (*Grammar, error) {
	c.mu.RLock()
	g, ok := c.grammars[form.ID]
	c.mu.RUnlock()
	if ok {
		return g, nil
	}

	v, err, _ := c.group.Do(form.ID, func() (any, error) {
		c.mu.RLock()
		g, ok := c.grammars[form.ID]
		c.mu.RUnlock()
		if ok {
			return g, nil
		}

		g, err := Build(form)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.grammars[form.ID] = g
		c.builds++
		c.mu.Unlock()
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Grammar), nil
}

// Builds returns how many grammars have been built.
func (c *Cache) Builds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builds
}
