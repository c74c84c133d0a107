// Package wishlist keeps the user's view of their wishlist consistent while
// add and remove requests are in flight. Each toggle is applied optimistically
// through a ledger of pending operations and reconciled with the server once
// the request settles.
package wishlist

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/dressrental/internal/domain"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
)

// ErrAuthenticationRequired is returned by Toggle when nobody is signed in.
var ErrAuthenticationRequired = errors.New("authentication required")

// User-facing notice texts.
const (
	MsgUpdateFailed   = "Failed to update wishlist, please retry"
	MsgSignInRequired = "Please sign in to save dresses to your wishlist"
	MsgSessionExpired = "Your session has expired, please sign in again"
)

// Remote is the wishlist API of the storefront backend.
type Remote interface {
	FetchUserWishlist(ctx context.Context) (domain.WishlistSnapshot, error)
	AddWishlistItem(ctx context.Context, dressID int64) error
	RemoveWishlistItem(ctx context.Context, dressID int64) error
}

// Session tells whether a user is currently signed in.
type Session interface {
	IsAuthenticated() bool
}

type NoticeKind int

const (
	NoticeSignInRequired NoticeKind = iota + 1
	NoticeUpdateFailed
)

// Notice is a transient, non-fatal message for the user.
type Notice struct {
	Kind    NoticeKind
	DressID int64
	Message string
}

type Option func(*ViewModel)

// WithNotifier sets the callback receiving notices. It is called without any
// lock held.
func WithNotifier(fn func(Notice)) Option {
	return func(vm *ViewModel) { vm.notify = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(vm *ViewModel) { vm.logger = l }
}

// ViewModel derives the effective wishlist from the last server snapshot and
// the pending operation ledger. A dress is in the effective wishlist when a
// pending Add exists for it, or when it is in the snapshot and no pending
// Remove exists. The ledger holds one operation per dress, so a Remove
// begun after an Add replaces it and wins.
type ViewModel struct {
	remote  Remote
	session Session
	notify  func(Notice)
	logger  *slog.Logger

	mu       sync.Mutex
	snapshot domain.WishlistSnapshot
	ledger   *Ledger
	// confirmed records superseded operations the server accepted, so the
	// settling operation knows the server state changed even if it failed.
	confirmed  map[int64]OpKind
	fetchSeq   uint64
	appliedSeq uint64

	inflight sync.WaitGroup
}

func New(remote Remote, session Session, opts ...Option) *ViewModel {
	vm := &ViewModel{
		remote:    remote,
		session:   session,
		notify:    func(Notice) {},
		logger:    slog.Default(),
		snapshot:  domain.EmptyWishlist(),
		ledger:    NewLedger(),
		confirmed: make(map[int64]OpKind),
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Refresh replaces the snapshot with the server's wishlist. Signed-out users
// get an empty wishlist without a request, and fetches still in flight from
// before the sign-out are discarded.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	if !vm.session.IsAuthenticated() {
		vm.mu.Lock()
		vm.fetchSeq++
		vm.applyLocked(domain.EmptyWishlist(), vm.fetchSeq)
		vm.mu.Unlock()
		return nil
	}

	seq := vm.nextFetch()
	snap, err := vm.remote.FetchUserWishlist(ctx)
	if err != nil {
		return apperrors.Wrap(err, "refresh wishlist")
	}

	vm.mu.Lock()
	vm.applyLocked(snap, seq)
	vm.mu.Unlock()
	return nil
}

// EffectiveMembership reports whether dressID should be shown as saved.
func (vm *ViewModel) EffectiveMembership(dressID int64) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.membershipLocked(dressID)
}

func (vm *ViewModel) membershipLocked(dressID int64) bool {
	if kind, ok := vm.ledger.IsPending(dressID); ok {
		return kind == OpAdd
	}
	return vm.snapshot.Contains(dressID)
}

// EffectiveDressIDs lists the effective wishlist: pending adds newest first,
// followed by the snapshot items that are not being removed.
func (vm *ViewModel) EffectiveDressIDs() []int64 {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	ids := make([]int64, 0, len(vm.snapshot.Items)+vm.ledger.Len())
	for _, op := range vm.ledger.Operations() {
		if op.Kind == OpAdd && !vm.snapshot.Contains(op.DressID) {
			ids = append(ids, op.DressID)
		}
	}
	for _, id := range vm.snapshot.DressIDs() {
		if kind, ok := vm.ledger.IsPending(id); ok && kind == OpRemove {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Snapshot returns a copy of the last server-confirmed wishlist.
func (vm *ViewModel) Snapshot() domain.WishlistSnapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.snapshot.Clone()
}

// Pending returns the kind of the in-flight operation for dressID.
func (vm *ViewModel) Pending(dressID int64) (OpKind, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.ledger.IsPending(dressID)
}

func (vm *ViewModel) PendingCount() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.ledger.Len()
}

// Toggle flips the effective membership of dressID. The pending operation is
// recorded before Toggle returns; the request runs in the background and is
// reconciled when it settles. Use Wait to block until all requests settled.
func (vm *ViewModel) Toggle(ctx context.Context, dressID int64) error {
	if !vm.session.IsAuthenticated() {
		vm.notify(Notice{Kind: NoticeSignInRequired, DressID: dressID, Message: MsgSignInRequired})
		return ErrAuthenticationRequired
	}

	vm.mu.Lock()
	kind := OpAdd
	if vm.membershipLocked(dressID) {
		kind = OpRemove
	}
	op := vm.ledger.Begin(dressID, kind)
	vm.inflight.Add(1)
	vm.mu.Unlock()

	go vm.settle(context.WithoutCancel(ctx), op)
	return nil
}

// Wait blocks until every request started by Toggle has settled.
func (vm *ViewModel) Wait() {
	vm.inflight.Wait()
}

func (vm *ViewModel) settle(ctx context.Context, op PendingOperation) {
	defer vm.inflight.Done()

	err := vm.send(ctx, op)

	vm.mu.Lock()
	if !vm.ledger.IsCurrent(op) {
		vm.supersededLocked(op, err)
		vm.mu.Unlock()
		vm.logger.DebugContext(ctx, "discarding stale wishlist response",
			slog.Int64("dress_id", op.DressID),
			slog.String("kind", op.Kind.String()),
		)
		return
	}
	earlier, hadEarlier := vm.confirmed[op.DressID]
	vm.mu.Unlock()

	// The server state moved if this operation, or one it superseded, succeeded.
	changed := err == nil || hadEarlier
	var (
		snap     domain.WishlistSnapshot
		fetchErr error
		seq      uint64
	)
	if changed {
		seq = vm.nextFetch()
		snap, fetchErr = vm.remote.FetchUserWishlist(ctx)
	}

	vm.mu.Lock()
	if !vm.ledger.IsCurrent(op) {
		vm.supersededLocked(op, err)
		vm.mu.Unlock()
		return
	}
	if changed {
		if fetchErr == nil {
			vm.applyLocked(snap, seq)
		} else {
			applied := op.Kind
			if err != nil {
				applied = earlier
			}
			vm.logger.WarnContext(ctx, "wishlist refresh failed, patching locally",
				slog.Int64("dress_id", op.DressID),
				slog.String("error", fetchErr.Error()),
			)
			vm.patchLocked(op.DressID, applied)
		}
	}
	vm.ledger.Complete(op.DressID)
	delete(vm.confirmed, op.DressID)
	vm.mu.Unlock()

	if err != nil {
		vm.logger.WarnContext(ctx, "wishlist update failed",
			slog.Int64("dress_id", op.DressID),
			slog.String("kind", op.Kind.String()),
			slog.String("error", err.Error()),
		)
		vm.notify(failureNotice(op.DressID, err))
	}
}

// send issues the request for op. A duplicate add is what the user wanted, so
// it counts as success.
func (vm *ViewModel) send(ctx context.Context, op PendingOperation) error {
	if op.Kind == OpRemove {
		return vm.remote.RemoveWishlistItem(ctx, op.DressID)
	}
	err := vm.remote.AddWishlistItem(ctx, op.DressID)
	if apperrors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

// supersededLocked remembers a successful response that arrived after a newer
// operation replaced op. Responses for dresses with nothing pending are dropped.
func (vm *ViewModel) supersededLocked(op PendingOperation, err error) {
	if err != nil {
		return
	}
	if _, pending := vm.ledger.IsPending(op.DressID); pending {
		vm.confirmed[op.DressID] = op.Kind
	}
}

func (vm *ViewModel) nextFetch() uint64 {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.fetchSeq++
	return vm.fetchSeq
}

// applyLocked installs snap unless a fetch started later was applied already.
func (vm *ViewModel) applyLocked(snap domain.WishlistSnapshot, seq uint64) {
	if seq < vm.appliedSeq {
		return
	}
	snap = snap.Clone()
	if snap.Items == nil {
		snap.Items = []domain.WishlistItem{}
	}
	vm.snapshot = snap
	vm.appliedSeq = seq
}

func (vm *ViewModel) patchLocked(dressID int64, kind OpKind) {
	switch kind {
	case OpAdd:
		if !vm.snapshot.Contains(dressID) {
			item := domain.WishlistItem{Dress: domain.Dress{ID: dressID}, AddedAt: time.Now().UTC()}
			vm.snapshot.Items = append([]domain.WishlistItem{item}, vm.snapshot.Items...)
		}
	case OpRemove:
		items := vm.snapshot.Items[:0:0]
		for _, it := range vm.snapshot.Items {
			if it.Dress.ID != dressID {
				items = append(items, it)
			}
		}
		vm.snapshot.Items = items
	}
}

func failureNotice(dressID int64, err error) Notice {
	if errors.Is(err, apperrors.ErrUnauthorized) {
		return Notice{Kind: NoticeSignInRequired, DressID: dressID, Message: MsgSessionExpired}
	}
	return Notice{Kind: NoticeUpdateFailed, DressID: dressID, Message: MsgUpdateFailed}
}
