package models

// Scope capability strings. Flat strings, no hierarchy; ScopeAdmin is a
// blanket capability that satisfies every scope check.
const (
	ScopeAdmin       = "admin"
	ScopeUserMe      = "user.me"
	ScopeUserCreate  = "user.create"
	ScopeUserUpdate  = "user.update"
	ScopeUserDelete  = "user.delete"
	ScopeUserAll     = "user.all"
	ScopeMemesAll    = "memes.all"
	ScopeMemesCreate = "memes.create"
	ScopeMemesUpdate = "memes.update"
	ScopeMemesDelete = "memes.delete"
)

// DefaultUserScopes is the scope bundle granted on self-service registration.
// Defined once; both the register handler and the seeder consult it.
func DefaultUserScopes() ScopeList {
	return ScopeList{
		ScopeUserMe,
		ScopeMemesAll,
		ScopeMemesCreate,
		ScopeMemesUpdate,
		ScopeMemesDelete,
	}
}

// AdminScopes is the bundle granted to bootstrap admin accounts.
func AdminScopes() ScopeList {
	return ScopeList{ScopeAdmin}
}

// Principal is the identity and scope set resolved from a verified token.
type Principal struct {
	Subject string
	Scopes  ScopeList
}

// IsAdmin reports whether the principal carries the blanket admin scope.
func (p Principal) IsAdmin() bool {
	return p.Scopes.Contains(ScopeAdmin)
}

// HasScope reports whether the principal may perform an operation guarded by
// the required scope. The admin bypass is encoded here and nowhere else.
func (p Principal) HasScope(required string) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Scopes.Contains(required)
}

// Owns reports whether the principal is the named user. Admin does NOT
// bypass this predicate; callers compose it with HasScope or IsAdmin
// explicitly per operation.
func (p Principal) Owns(username string) bool {
	return p.Subject == username
}
