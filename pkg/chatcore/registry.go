package chatcore

import (
	"context"
	"fmt"
	"sync"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

// AdapterRegistry is the global, name-keyed registry used in place of
// serializing adapter identity by module name: adapters register a
// constructor once at program start, and Chat.ToMap/Revive serialize only
// the name, looking the implementation back up on revival.
type AdapterRegistry struct {
	mu           sync.RWMutex
	constructors map[string]func() chat.Adapter
}

var defaultRegistry = &AdapterRegistry{constructors: map[string]func() chat.Adapter{}}

// RegisterAdapterType records a constructor for adapterName in the global
// registry. Call this from an adapter package's init(), mirroring how the
// teacher pack's integrations register themselves into a shared registry.
func RegisterAdapterType(adapterName string, construct func() chat.Adapter) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.constructors[adapterName] = construct
}

// ResolveAdapterType looks up a registered constructor by name.
func ResolveAdapterType(adapterName string) (func() chat.Adapter, bool) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	construct, ok := defaultRegistry.constructors[adapterName]
	return construct, ok
}

// unresolvedAdapter is the opaque placeholder an unknown registry name
// revives as: it satisfies chat.Adapter syntactically but errors on first
// use rather than during revival.
type unresolvedAdapter struct {
	name string
}

func (u *unresolvedAdapter) ChannelType() string { return u.name }

func (u *unresolvedAdapter) TransformIncoming(ctx context.Context, raw map[string]interface{}) (chat.Incoming, error) {
	return chat.Incoming{}, u.err()
}

func (u *unresolvedAdapter) SendMessage(ctx context.Context, externalRoomID, text string, opts map[string]interface{}) (chat.Response, error) {
	return chat.Response{}, u.err()
}

func (u *unresolvedAdapter) err() error {
	return fmt.Errorf("chatcore: adapter %q was not re-registered before revival", u.name)
}
