package backend

import "context"

// Remote procedure names exposed by the plugin backend
const (
	ProcGetCurrentTTL     = "get_current_ttl"
	ProcSetTTLTo65        = "set_ttl_to_65"
	ProcResetTTLToDefault = "reset_ttl_to_default"
	ProcMakeTTLPersistent = "make_ttl_persistent"
	ProcGetPersistentTTL  = "get_persistent_ttl"
	ProcSetTTLCustom      = "set_ttl_custom"
)

// Procedures lists every procedure in the contract
var Procedures = []string{
	ProcGetCurrentTTL,
	ProcSetTTLTo65,
	ProcResetTTLToDefault,
	ProcMakeTTLPersistent,
	ProcGetPersistentTTL,
	ProcSetTTLCustom,
}

// PersistenceStatus is the result of get_persistent_ttl
type PersistenceStatus struct {
	IsPersistent bool `json:"is_persistent"`
	TTLValue     *int `json:"ttl_value"` // nil when no rule is installed
}

// Service is the remote-procedure contract of the TTL backend. Mutating
// calls return the backend's boolean success signal; a non-nil error means
// the call itself did not complete.
type Service interface {
	GetCurrentTTL(ctx context.Context) (int, error)
	SetTTLTo65(ctx context.Context) (bool, error)
	ResetTTLToDefault(ctx context.Context) (bool, error)
	MakeTTLPersistent(ctx context.Context, ttl int) (bool, error)
	GetPersistentTTL(ctx context.Context) (PersistenceStatus, error)
	SetTTLCustom(ctx context.Context, ttl int) (bool, error)
}

// Ensure implementations satisfy Service
var (
	_ Service = (*Client)(nil)
	_ Service = (*MockService)(nil)
)
