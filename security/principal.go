package security

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
)

// Kind is the closed set of principal kinds.
type Kind string

const (
	KindKernel   Kind = "kernel"
	KindTopLevel Kind = "topLevel"
	KindChild    Kind = "child"
	KindFriend   Kind = "friend"
	KindResource Kind = "resource"
)

// ValidKind reports whether k is one of the closed set of principal kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindKernel, KindTopLevel, KindChild, KindFriend, KindResource:
		return true
	default:
		return false
	}
}

// PKR (Public Key Record) is an immutable, signed-by-construction view of a
// principal's identity.
type PKR struct {
	UUID      string
	Kind      Kind
	Name      string
	PublicKey string
	Minter    string
	NotBefore time.Time
	NotAfter  time.Time
}

// IsMinter reports whether kernelID matches this PKR's minting kernel.
func (p PKR) IsMinter(kernelID string) bool {
	return p.Minter != "" && p.Minter == kernelID
}

// Expired reports whether, per clock, this PKR is at or after its
// validity window's end.
func (p PKR) Expired(clock Clock) bool {
	if p.NotAfter.IsZero() {
		return false
	}
	return !clock.Now().Before(p.NotAfter)
}

// Principal is a named security subject.
type Principal struct {
	mu sync.Mutex

	uuid      string
	kind      Kind
	publicKey string
	name      string
	metadata  map[string]any
	createdAt time.Time
	kernelID  string // opaque; set only for kernel-minted principals that act as minter

	instance   any
	attached   bool
	cachedPKR  *PKR
	pkrTTL     time.Duration
}

// newPrincipal constructs a Principal. kind must already be validated by the
// caller (PrincipalRegistry).
func newPrincipal(kind Kind, publicKey, name string, metadata map[string]any, kernelID string, pkrTTL time.Duration, now time.Time) *Principal {
	return &Principal{
		uuid:      uuid.New().String(),
		kind:      kind,
		publicKey: publicKey,
		name:      name,
		metadata:  metadata,
		createdAt: now,
		kernelID:  kernelID,
		pkrTTL:    pkrTTL,
	}
}

func (p *Principal) UUID() string { return p.uuid }
func (p *Principal) Kind() Kind   { return p.kind }

func (p *Principal) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

func (p *Principal) PublicKey() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publicKey
}

func (p *Principal) CreatedAt() time.Time { return p.createdAt }

// AttachInstance binds instance once; re-binding fails with AlreadyAttached,
// a nil instance fails with InvalidInstance.
func (p *Principal) AttachInstance(instance any) error {
	if instance == nil {
		return errs.New(errs.InvalidInstance, "instance must not be nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.attached {
		return errs.New(errs.AlreadyAttached, "principal %s already has an attached instance", p.uuid)
	}
	p.instance = instance
	p.attached = true
	return nil
}

// Instance returns the attached instance, if any.
func (p *Principal) Instance() (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.instance, p.attached
}

// PKR lazily creates and caches the principal's current PKR.
func (p *Principal) PKR(now time.Time) *PKR {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cachedPKR != nil {
		return p.cachedPKR
	}
	p.cachedPKR = p.buildPKRLocked(now)
	return p.cachedPKR
}

func (p *Principal) buildPKRLocked(now time.Time) *PKR {
	pkr := &PKR{
		UUID:      p.uuid,
		Kind:      p.kind,
		Name:      p.name,
		PublicKey: p.publicKey,
		Minter:    p.kernelID,
		NotBefore: now,
	}
	if p.pkrTTL > 0 {
		pkr.NotAfter = now.Add(p.pkrTTL)
	}
	return pkr
}

// Refresh replaces publicKey, invalidates the cached PKR, and returns the
// new one.
func (p *Principal) Refresh(newPublicKey string, now time.Time) *PKR {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publicKey = newPublicKey
	p.cachedPKR = p.buildPKRLocked(now)
	return p.cachedPKR
}

// Rename replaces the principal's name. The registry, not Principal, is
// responsible for reconciling its name index.
func (p *Principal) Rename(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = name
	if p.cachedPKR != nil {
		renamed := *p.cachedPKR
		renamed.Name = name
		p.cachedPKR = &renamed
	}
}

// Metadata returns the principal's metadata map.
func (p *Principal) Metadata() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metadata
}
