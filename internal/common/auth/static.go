package auth

import (
	"context"
	"sync"
)

// StaticRoleProvider is a config-backed RoleProvider for deployments without
// an external credential service. Role assignments may be changed at runtime
// and take effect on the next permission check.
type StaticRoleProvider struct {
	mu          sync.RWMutex
	roles       map[string]Role
	defaultRole Role
}

func NewStaticRoleProvider(defaultRole Role) *StaticRoleProvider {
	return &StaticRoleProvider{
		roles:       map[string]Role{},
		defaultRole: defaultRole,
	}
}

func (p *StaticRoleProvider) SetRole(userID string, role Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roles[userID] = role
}

func (p *StaticRoleProvider) CurrentRole(_ context.Context, userID string) (Role, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if role, ok := p.roles[userID]; ok {
		return role, nil
	}
	return p.defaultRole, nil
}
