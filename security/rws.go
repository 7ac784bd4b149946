package security

import "sync"

// ReaderWriterSet is a per-resource ACL with owner, readers, writers, and
// grant semantics. Mutating operations fail-soft: they return false rather
// than an error when arguments are invalid or the granter lacks canGrant.
// Remove operations additionally return true whenever they complete
// regardless of prior membership.
type ReaderWriterSet struct {
	mu sync.RWMutex

	resourceUUID string
	ownerPKR     PKR
	readers      map[string]PKR
	writers      map[string]PKR
	principals   *PrincipalRegistry
}

// newReaderWriterSet constructs an RWS owned by ownerPKR.
func newReaderWriterSet(resourceUUID string, ownerPKR PKR, principals *PrincipalRegistry) *ReaderWriterSet {
	return &ReaderWriterSet{
		resourceUUID: resourceUUID,
		ownerPKR:     ownerPKR,
		readers:      make(map[string]PKR),
		writers:      make(map[string]PKR),
		principals:   principals,
	}
}

// canGrantLocked reports whether granter may grant access: true for kernel
// or the owner, false otherwise.
func (r *ReaderWriterSet) canGrantLocked(granter PKR) bool {
	return granter.Kind == KindKernel || granter.UUID == r.ownerPKR.UUID
}

func validPKR(p PKR) bool { return p.UUID != "" }

// CanRead reports whether grantee may read: kernel and owner always can;
// readers and writers additionally can.
func (r *ReaderWriterSet) CanRead(grantee PKR) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if grantee.Kind == KindKernel || grantee.UUID == r.ownerPKR.UUID {
		return true
	}
	if _, ok := r.readers[grantee.UUID]; ok {
		return true
	}
	_, ok := r.writers[grantee.UUID]
	return ok
}

// CanWrite reports whether grantee may write: kernel, owner, and writers.
func (r *ReaderWriterSet) CanWrite(grantee PKR) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if grantee.Kind == KindKernel || grantee.UUID == r.ownerPKR.UUID {
		return true
	}
	_, ok := r.writers[grantee.UUID]
	return ok
}

// CanGrant reports whether grantee may grant access on this resource.
func (r *ReaderWriterSet) CanGrant(grantee PKR) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.canGrantLocked(grantee)
}

// IsOwner reports whether candidate is this RWS's owner.
func (r *ReaderWriterSet) IsOwner(candidate PKR) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return candidate.UUID == r.ownerPKR.UUID
}

// AddReader grants grantee reader access. Adding an already-present
// grantee is a no-op returning true.
func (r *ReaderWriterSet) AddReader(granter, grantee PKR) bool {
	if !validPKR(granter) || !validPKR(grantee) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.canGrantLocked(granter) {
		return false
	}
	if _, ok := r.writers[grantee.UUID]; ok {
		return true
	}
	r.readers[grantee.UUID] = grantee
	return true
}

// AddWriter grants grantee writer access (readers ∩ writers = ∅ is
// preserved by removing any prior reader entry).
func (r *ReaderWriterSet) AddWriter(granter, grantee PKR) bool {
	if !validPKR(granter) || !validPKR(grantee) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.canGrantLocked(granter) {
		return false
	}
	delete(r.readers, grantee.UUID)
	r.writers[grantee.UUID] = grantee
	return true
}

// RemoveReader revokes reader access. Returns true whenever the operation
// completes regardless of whether grantee was a member, false only on
// invalid arguments or a granter lacking canGrant.
func (r *ReaderWriterSet) RemoveReader(granter, grantee PKR) bool {
	if !validPKR(granter) || !validPKR(grantee) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.canGrantLocked(granter) {
		return false
	}
	delete(r.readers, grantee.UUID)
	return true
}

// RemoveWriter revokes writer access, with the same fail-soft policy as
// RemoveReader.
func (r *ReaderWriterSet) RemoveWriter(granter, grantee PKR) bool {
	if !validPKR(granter) || !validPKR(grantee) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.canGrantLocked(granter) {
		return false
	}
	delete(r.writers, grantee.UUID)
	return true
}

// Promote moves a reader to writer.
func (r *ReaderWriterSet) Promote(granter, grantee PKR) bool {
	if !validPKR(granter) || !validPKR(grantee) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.canGrantLocked(granter) {
		return false
	}
	delete(r.readers, grantee.UUID)
	r.writers[grantee.UUID] = grantee
	return true
}

// Demote moves a writer to reader.
func (r *ReaderWriterSet) Demote(granter, grantee PKR) bool {
	if !validPKR(granter) || !validPKR(grantee) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.canGrantLocked(granter) {
		return false
	}
	delete(r.writers, grantee.UUID)
	r.readers[grantee.UUID] = grantee
	return true
}

// Clone yields an independent copy sharing the same owner PKR and
// principals reference.
func (r *ReaderWriterSet) Clone() *ReaderWriterSet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clone := &ReaderWriterSet{
		resourceUUID: r.resourceUUID,
		ownerPKR:     r.ownerPKR,
		readers:      make(map[string]PKR, len(r.readers)),
		writers:      make(map[string]PKR, len(r.writers)),
		principals:   r.principals,
	}
	for k, v := range r.readers {
		clone.readers[k] = v
	}
	for k, v := range r.writers {
		clone.writers[k] = v
	}
	return clone
}
