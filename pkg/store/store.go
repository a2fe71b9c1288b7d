package store

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
	"github.com/matzehuels/brickgrid/pkg/manifest"
	"github.com/matzehuels/brickgrid/pkg/observability"
	"github.com/matzehuels/brickgrid/pkg/page"
)

// Op names a store command.
type Op string

const (
	OpMove     Op = "move"
	OpResize   Op = "resize"
	OpReparent Op = "reparent"
	OpInsert   Op = "insert"
	OpRemove   Op = "remove"
	OpReplace  Op = "replace"
)

// Event describes one committed command.
type Event struct {
	Op         Op
	BrickIDs   []string
	Breakpoint grid.Breakpoint // empty for breakpoint-independent commands
	Version    uint64
}

// Store owns a page and serializes all changes to it.
type Store struct {
	mu        sync.RWMutex
	page      *page.Page
	manifests manifest.Provider
	logger    *log.Logger
	version   uint64

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithManifests sets the manifest provider used to bound resizes. Without
// one, every brick type uses manifest.Fallback.
func WithManifests(p manifest.Provider) Option {
	return func(s *Store) { s.manifests = p }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a store holding a copy of p. The page is normalized and must
// pass page.Validate.
func New(p *page.Page, opts ...Option) (*Store, error) {
	s := &Store{
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		subs:   make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(p); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(p *page.Page) error {
	if p == nil {
		return errors.New(errors.ErrCodeInvalidDocument, "page is nil")
	}
	cp := p.Clone()
	cp.Normalize()
	if err := cp.Validate(); err != nil {
		return err
	}
	s.page = cp
	return nil
}

// Replace swaps in a new page document. It is validated like in New.
func (s *Store) Replace(p *page.Page) (err error) {
	start := time.Now()
	defer func() { s.observe(OpReplace, 0, start, err) }()

	s.mu.Lock()
	if err = s.load(p); err != nil {
		s.mu.Unlock()
		return err
	}
	ev := s.commit(OpReplace, "", nil)
	s.mu.Unlock()

	s.notify(ev)
	return nil
}

// Manifests returns the manifest provider, which may be nil.
func (s *Store) Manifests() manifest.Provider { return s.manifests }

// Manifest returns the manifest for the brick with the given id.
func (s *Store) Manifest(id string) (manifest.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, err := s.find(id)
	if err != nil {
		return manifest.Manifest{}, err
	}
	return manifest.Lookup(s.manifests, loc.Brick.Type), nil
}

// Version returns a counter that increases with every commit.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Page returns a deep copy of the current page.
func (s *Store) Page() *page.Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page.Clone()
}

// Brick returns a copy of the brick with the given id.
func (s *Store) Brick(id string) (*page.Brick, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.page.Find(id)
	if !ok {
		return nil, false
	}
	return loc.Brick.Clone(), true
}

// Position returns the position of a brick at bp.
func (s *Store) Position(id string, bp grid.Breakpoint) (page.Position, error) {
	if !bp.Valid() {
		return page.Position{}, errors.New(errors.ErrCodeInvalidBreakpoint, "unknown breakpoint %q", bp)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, err := s.find(id)
	if err != nil {
		return page.Position{}, err
	}
	return *loc.Brick.Position.At(bp), nil
}

// Siblings returns copies of every brick in the list that holds id,
// including the brick itself.
func (s *Store) Siblings(id string) ([]*page.Brick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return cloneAll(loc.Siblings()), nil
}

// Section returns a copy of the section with the given id.
func (s *Store) Section(id string) (*page.Section, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.page.Section(id)
	if !ok {
		return nil, false
	}
	return sec.Clone(), true
}

// Parent returns the id of the container holding id, or "" for a
// section-level brick, and the id of the section the brick lives in.
func (s *Store) Parent(id string) (parentID, sectionID string, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, err := s.find(id)
	if err != nil {
		return "", "", err
	}
	if loc.Parent != nil {
		parentID = loc.Parent.ID
	}
	return parentID, loc.Section.ID, nil
}

// Children returns copies of the bricks directly held by listID, which may
// name a section or a container brick.
func (s *Store) Children(listID string) ([]*page.Brick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, _, err := s.list(listID)
	if err != nil {
		return nil, err
	}
	return cloneAll(list), nil
}

// Collisions reports overlapping pairs among the bricks directly held by
// listID at bp. An empty listID reports the whole page.
func (s *Store) Collisions(listID string, bp grid.Breakpoint) ([]page.Collision, error) {
	if !bp.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidBreakpoint, "unknown breakpoint %q", bp)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if listID == "" {
		return s.page.PageCollisions(bp), nil
	}
	list, _, err := s.list(listID)
	if err != nil {
		return nil, err
	}
	return page.Collisions(list, bp), nil
}

// Subscribe registers fn to receive an Event after every commit. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// commit bumps the version and builds the event. Callers hold s.mu.
func (s *Store) commit(op Op, bp grid.Breakpoint, ids []string) Event {
	s.version++
	s.logger.Debug("layout commit", "op", op, "bricks", ids, "breakpoint", bp, "version", s.version)
	return Event{Op: op, BrickIDs: ids, Breakpoint: bp, Version: s.version}
}

func (s *Store) observe(op Op, bricks int, start time.Time, err error) {
	observability.Store().OnCommand(string(op), bricks, time.Since(start), err)
	if err != nil {
		s.logger.Debug("layout command rejected", "op", op, "err", err)
	}
}

func (s *Store) find(id string) (page.Location, error) {
	loc, ok := s.page.Find(id)
	if !ok {
		return page.Location{}, errors.New(errors.ErrCodeNotFound, "brick %q not found", id)
	}
	return loc, nil
}

// list resolves a section or container id to the slice it holds and the
// container brick, which is nil for sections.
func (s *Store) list(id string) ([]*page.Brick, *page.Brick, error) {
	if sec, ok := s.page.Section(id); ok {
		return sec.Bricks, nil, nil
	}
	loc, ok := s.page.Find(id)
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeNotFound, "no section or container %q", id)
	}
	if !loc.Brick.IsContainer {
		return nil, nil, errors.New(errors.ErrCodeInvalidParent, "brick %q is not a container", id)
	}
	return loc.Brick.Children, loc.Brick, nil
}

func cloneAll(in []*page.Brick) []*page.Brick {
	out := make([]*page.Brick, len(in))
	for i, b := range in {
		out[i] = b.Clone()
	}
	return out
}
