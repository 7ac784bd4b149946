package security

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
)

// sendProtectedKernel is the capability a kernel principal's attached
// instance must expose for createIdentity/createFriendIdentity to succeed.
type sendProtectedKernel interface {
	SendProtected(msg any) (any, error)
}

// Identity wraps a PKR with the capability checks createIdentity/
// createFriendIdentity produce.
type Identity struct {
	PKR      PKR
	registry *PrincipalRegistry

	requireGrant bool // friend identities cannot grant by default
}

func (id Identity) CanRead() bool  { return id.registry.canRead(id.PKR) }
func (id Identity) CanWrite() bool { return id.registry.canWrite(id.PKR) }
func (id Identity) CanGrant() bool { return !id.requireGrant && id.registry.canGrant(id.PKR) }

func (id Identity) RequireRead() error {
	if !id.CanRead() {
		return errs.New(errs.InvalidOrUnknownPKR, "identity %s cannot read", id.PKR.UUID)
	}
	return nil
}

func (id Identity) RequireWrite() error {
	if !id.CanWrite() {
		return errs.New(errs.InvalidOrUnknownPKR, "identity %s cannot write", id.PKR.UUID)
	}
	return nil
}

func (id Identity) RequireGrant() error {
	if !id.CanGrant() {
		return errs.New(errs.InvalidOrUnknownPKR, "identity %s cannot grant", id.PKR.UUID)
	}
	return nil
}

func (id Identity) SendProtected(msg any) (any, error) {
	kernel, ok := id.registry.kernelInstance()
	if !ok {
		return nil, errs.New(errs.KernelUnavailable, "registry has no kernel")
	}
	sp, ok := kernel.(sendProtectedKernel)
	if !ok {
		return nil, errs.New(errs.KernelMissingSendProtected, "kernel does not implement SendProtected")
	}
	return sp.SendProtected(msg)
}

// CreateOptions configures CreatePrincipal.
type CreateOptions struct {
	Name     string
	Owner    *PKR // required for child/resource
	Metadata map[string]any
	Instance any
}

// PrincipalRegistry mints, looks up, rotates, and tears down Principals,
// and mediates their RWS and identity wrappers.
type PrincipalRegistry struct {
	mu sync.RWMutex

	byUUID       map[string]*Principal
	byName       map[string]string // name -> uuid
	byPublicKey  map[string]string // publicKey -> uuid
	byPrivateKey map[string]string // privateKey -> uuid
	pubToPriv    map[string]string // publicKey -> privateKey

	rwsCache map[string]*ReaderWriterSet // owner uuid -> RWS

	kernelID string

	rotationLocks map[string]*sync.Mutex
	rotationMu    sync.Mutex

	clock  Clock
	pkrTTL time.Duration
	log    *zap.Logger
}

// NewPrincipalRegistry constructs an empty registry. clock may be nil
// (defaults to SystemClock); log may be nil (defaults to a no-op logger).
func NewPrincipalRegistry(clock Clock, pkrTTL time.Duration, log *zap.Logger) *PrincipalRegistry {
	if clock == nil {
		clock = SystemClock
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PrincipalRegistry{
		byUUID:        make(map[string]*Principal),
		byName:        make(map[string]string),
		byPublicKey:   make(map[string]string),
		byPrivateKey:  make(map[string]string),
		pubToPriv:     make(map[string]string),
		rwsCache:      make(map[string]*ReaderWriterSet),
		rotationLocks: make(map[string]*sync.Mutex),
		clock:         clock,
		pkrTTL:        pkrTTL,
		log:           log,
	}
}

func newOpaqueToken() string { return uuid.New().String() }

// mint returns a fresh public key for every kind, and additionally a
// private key for every kind except child/resource.
func (r *PrincipalRegistry) mint(kind Kind) (publicKey, privateKey string, err error) {
	if !ValidKind(kind) {
		return "", "", errs.New(errs.InvalidKind, "unknown principal kind %q", kind)
	}
	publicKey = newOpaqueToken()
	switch kind {
	case KindChild, KindResource:
		return publicKey, "", nil
	default:
		return publicKey, newOpaqueToken(), nil
	}
}

// CreatePrincipal mints keys, enforces uniqueness, optionally attaches an
// instance, stores the principal in every index, and returns its PKR.
func (r *PrincipalRegistry) CreatePrincipal(kind Kind, opts CreateOptions) (*PKR, error) {
	publicKey, privateKey, err := r.mint(kind)
	if err != nil {
		r.audit("createPrincipal", "", opts.Name, "error", err)
		return nil, err
	}

	r.mu.Lock()

	if opts.Name != "" {
		if _, exists := r.byName[opts.Name]; exists {
			r.mu.Unlock()
			err := errs.New(errs.NameConflict, "principal name %q already registered", opts.Name)
			r.audit("createPrincipal", "", opts.Name, "error", err)
			return nil, err
		}
	}
	if kind == KindKernel && r.kernelID != "" {
		r.mu.Unlock()
		err := errs.New(errs.DuplicateKernel, "registry already has a kernel principal")
		r.audit("createPrincipal", "", opts.Name, "error", err)
		return nil, err
	}

	var ownerPrivate string
	if kind == KindChild || kind == KindResource {
		if opts.Owner == nil {
			r.mu.Unlock()
			err := errs.New(errs.InvalidArgument, "%s principal requires an owner PKR", kind)
			r.audit("createPrincipal", "", opts.Name, "error", err)
			return nil, err
		}
		ownerUUID, ok := r.byUUID[opts.Owner.UUID]
		if !ok {
			r.mu.Unlock()
			err := errs.New(errs.InvalidOrUnknownPKR, "owner PKR is not registered")
			r.audit("createPrincipal", "", opts.Name, "error", err)
			return nil, err
		}
		ownerPrivate = r.pubToPriv[ownerUUID.PublicKey()]
	}

	now := r.clock.Now()
	var minterID string
	if kind == KindKernel {
		minterID = publicKey
	}
	p := newPrincipal(kind, publicKey, opts.Name, opts.Metadata, minterID, r.pkrTTL, now)

	if opts.Instance != nil {
		r.mu.Unlock()
		if err := p.AttachInstance(opts.Instance); err != nil {
			r.audit("createPrincipal", p.UUID(), opts.Name, "error", err)
			return nil, err
		}
		r.mu.Lock()
	}

	r.byUUID[p.UUID()] = p
	if opts.Name != "" {
		r.byName[opts.Name] = p.UUID()
	}
	r.byPublicKey[publicKey] = p.UUID()
	if privateKey != "" {
		r.byPrivateKey[privateKey] = p.UUID()
		r.pubToPriv[publicKey] = privateKey
	} else {
		r.pubToPriv[publicKey] = ownerPrivate
	}
	if kind == KindKernel {
		r.kernelID = p.UUID()
	}
	r.mu.Unlock()

	r.audit("createPrincipal", p.UUID(), opts.Name, "ok", nil)
	return p.PKR(now), nil
}

// ResolvePKR returns the private token associated with pkr's principal,
// looked up by uuid (so rotation never invalidates resolution).
func (r *PrincipalRegistry) ResolvePKR(pkr PKR) (string, bool, error) {
	if pkr.UUID == "" {
		return "", false, errs.New(errs.InvalidPKR, "pkr must carry a uuid")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byUUID[pkr.UUID]
	if !ok {
		return "", false, nil
	}
	priv, ok := r.pubToPriv[p.PublicKey()]
	return priv, ok, nil
}

func (r *PrincipalRegistry) rotationLockFor(uuidStr string) *sync.Mutex {
	r.rotationMu.Lock()
	defer r.rotationMu.Unlock()
	m, ok := r.rotationLocks[uuidStr]
	if !ok {
		m = &sync.Mutex{}
		r.rotationLocks[uuidStr] = m
	}
	return m
}

// RefreshPrincipal rotates target's public key if its current PKR is
// expired, preserving the private-token binding.
func (r *PrincipalRegistry) RefreshPrincipal(target any) (*PKR, error) {
	p, err := r.resolvePrincipalArg(target)
	if err != nil {
		return nil, err
	}

	lock := r.rotationLockFor(p.UUID())
	lock.Lock()
	defer lock.Unlock()

	now := r.clock.Now()
	current := p.PKR(now)
	if !current.Expired(r.clock) {
		return current, nil
	}

	oldPublicKey := p.PublicKey()
	newPublicKey, _, err := r.mint(p.Kind())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	priv := r.pubToPriv[oldPublicKey]
	delete(r.byPublicKey, oldPublicKey)
	delete(r.pubToPriv, oldPublicKey)
	r.byPublicKey[newPublicKey] = p.UUID()
	r.pubToPriv[newPublicKey] = priv
	r.mu.Unlock()

	newPKR := p.Refresh(newPublicKey, now)

	if instance, attached := p.Instance(); attached && instance != nil {
		switch p.Kind() {
		case KindFriend:
			_, _ = r.createIdentity(*newPKR, true)
		default:
			_, _ = r.createIdentity(*newPKR, false)
		}
	}

	r.audit("refreshPrincipal", p.UUID(), p.Name(), "rotated", nil)
	return newPKR, nil
}

func (r *PrincipalRegistry) resolvePrincipalArg(target any) (*Principal, error) {
	switch v := target.(type) {
	case *Principal:
		return v, nil
	case string:
		r.mu.RLock()
		uuidStr, ok := r.byPublicKey[v]
		r.mu.RUnlock()
		if !ok {
			return nil, errs.New(errs.UnknownPKR, "no principal registered for public key")
		}
		return r.Get(uuidStr)
	default:
		return nil, errs.New(errs.InvalidArgument, "refreshPrincipal target must be a Principal or a public key")
	}
}

// createIdentity/createFriendIdentity fail with InvalidOrUnknownPKR,
// KernelUnavailable, or KernelMissingSendProtected.
func (r *PrincipalRegistry) CreateIdentity(pkr PKR) (Identity, error) {
	return r.createIdentity(pkr, false)
}

func (r *PrincipalRegistry) CreateFriendIdentity(pkr PKR) (Identity, error) {
	return r.createIdentity(pkr, true)
}

func (r *PrincipalRegistry) createIdentity(pkr PKR, friend bool) (Identity, error) {
	r.mu.RLock()
	_, ok := r.byUUID[pkr.UUID]
	hasKernel := r.kernelID != ""
	r.mu.RUnlock()

	if !ok {
		return Identity{}, errs.New(errs.InvalidOrUnknownPKR, "pkr %s is not registered", pkr.UUID)
	}
	if !hasKernel {
		return Identity{}, errs.New(errs.KernelUnavailable, "registry has no kernel principal")
	}
	kernel, ok := r.kernelInstance()
	if !ok {
		return Identity{}, errs.New(errs.KernelMissingSendProtected, "kernel has no attached instance")
	}
	if _, ok := kernel.(sendProtectedKernel); !ok {
		return Identity{}, errs.New(errs.KernelMissingSendProtected, "kernel does not implement SendProtected")
	}
	return Identity{PKR: pkr, registry: r, requireGrant: friend}, nil
}

func (r *PrincipalRegistry) kernelInstance() (any, bool) {
	r.mu.RLock()
	kernelUUID := r.kernelID
	r.mu.RUnlock()
	if kernelUUID == "" {
		return nil, false
	}
	p, err := r.Get(kernelUUID)
	if err != nil {
		return nil, false
	}
	return p.Instance()
}

func (r *PrincipalRegistry) canRead(pkr PKR) bool  { return pkr.Kind == KindKernel }
func (r *PrincipalRegistry) canWrite(pkr PKR) bool { return pkr.Kind == KindKernel }
func (r *PrincipalRegistry) canGrant(pkr PKR) bool { return pkr.Kind == KindKernel }

// CreateRWS returns the cached ReaderWriterSet for owner, creating it once.
func (r *PrincipalRegistry) CreateRWS(owner PKR) *ReaderWriterSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rws, ok := r.rwsCache[owner.UUID]; ok {
		return rws
	}
	rws := newReaderWriterSet(owner.UUID, owner, r)
	r.rwsCache[owner.UUID] = rws
	return rws
}

// Get returns a principal by uuid.
func (r *PrincipalRegistry) Get(uuidStr string) (*Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byUUID[uuidStr]
	if !ok {
		return nil, errs.New(errs.UnknownPKR, "no principal with uuid %s", uuidStr)
	}
	return p, nil
}

// Has reports whether id — a uuid, name, public key, or private key —
// resolves to a registered principal.
func (r *PrincipalRegistry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.byUUID[id]; ok {
		return true
	}
	if _, ok := r.byName[id]; ok {
		return true
	}
	if _, ok := r.byPublicKey[id]; ok {
		return true
	}
	if _, ok := r.byPrivateKey[id]; ok {
		return true
	}
	return false
}

// Delete removes uuidStr from every index and clears its RWS cache; if it
// was the kernel, kernelID resets.
func (r *PrincipalRegistry) Delete(uuidStr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byUUID[uuidStr]
	if !ok {
		return false
	}
	delete(r.byUUID, uuidStr)
	if p.Name() != "" {
		delete(r.byName, p.Name())
	}
	pub := p.PublicKey()
	priv := r.pubToPriv[pub]
	delete(r.byPublicKey, pub)
	delete(r.pubToPriv, pub)
	if priv != "" {
		delete(r.byPrivateKey, priv)
	}
	delete(r.rwsCache, uuidStr)
	if r.kernelID == uuidStr {
		r.kernelID = ""
	}
	r.audit("delete", uuidStr, p.Name(), "ok", nil)
	return true
}

// RenamePrincipal replaces uuidStr's name, reconciling the registry's name
// index: the old name (if any) is freed and the new name (if non-empty) is
// claimed, failing with NameConflict if another principal already holds it.
func (r *PrincipalRegistry) RenamePrincipal(uuidStr, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byUUID[uuidStr]
	if !ok {
		return errs.New(errs.UnknownPKR, "no principal with uuid %s", uuidStr)
	}
	if name != "" {
		if owner, exists := r.byName[name]; exists && owner != uuidStr {
			return errs.New(errs.NameConflict, "principal name %q already registered", name)
		}
	}

	if old := p.Name(); old != "" {
		delete(r.byName, old)
	}
	p.Rename(name)
	if name != "" {
		r.byName[name] = uuidStr
	}
	return nil
}

// Clear resets the registry to empty.
func (r *PrincipalRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUUID = make(map[string]*Principal)
	r.byName = make(map[string]string)
	r.byPublicKey = make(map[string]string)
	r.byPrivateKey = make(map[string]string)
	r.pubToPriv = make(map[string]string)
	r.rwsCache = make(map[string]*ReaderWriterSet)
	r.kernelID = ""
}

// Size returns the number of registered principals.
func (r *PrincipalRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUUID)
}

func (r *PrincipalRegistry) audit(action, principalUUID, actor, result string, err error) {
	fields := []zap.Field{
		zap.String("action", action),
		zap.String("principal_uuid", principalUUID),
		zap.String("actor_pkr", actor),
		zap.String("result", result),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.Warn("principal_registry_event", fields...)
		return
	}
	r.log.Info("principal_registry_event", fields...)
}
