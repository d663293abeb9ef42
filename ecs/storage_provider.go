package ecs

import (
	"sync"

	"github.com/pkg/errors"
)

type storageProvider struct {
	mu     sync.RWMutex
	stores map[ComponentType]ComponentStore
	order  []ComponentType
}

func newStorageProvider() *storageProvider {
	return &storageProvider{stores: make(map[ComponentType]ComponentStore)}
}

func (p *storageProvider) RegisterComponent(t ComponentType, strategy StorageStrategy) error {
	if strategy == nil {
		return ErrNilStorageStrategy
	}

	store := strategy.NewStore(t)
	if store == nil {
		return ErrNilComponentStore
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.stores[t]; exists {
		return errors.Wrapf(ErrComponentAlreadyRegistered, "component %s", t)
	}

	p.stores[t] = store
	p.order = append(p.order, t)
	return nil
}

func (p *storageProvider) View(t ComponentType) (ComponentView, error) {
	p.mu.RLock()
	store, ok := p.stores[t]
	p.mu.RUnlock()

	if !ok {
		return nil, errors.Wrapf(ErrComponentNotRegistered, "component %s", t)
	}

	return store, nil
}

func (p *storageProvider) RemoveEntity(id EntityID) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	removed := 0
	for _, t := range p.order {
		if p.stores[t].Remove(id) {
			removed++
		}
	}
	return removed
}

func (p *storageProvider) Types() []ComponentType {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]ComponentType(nil), p.order...)
}

func (p *storageProvider) Apply(world *World, commands []Command) error {
	for _, cmd := range commands {
		if cmd == nil {
			continue
		}
		if err := cmd.Apply(world); err != nil {
			return err
		}
	}
	return nil
}

var _ StorageProvider = (*storageProvider)(nil)
