package xdom

import (
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/reoring/xdom/i18n"
	"github.com/reoring/xdom/xmltree"
)

// Manager owns opened files, their caches and the access discipline: any
// number of readers, or one writer. Files, caches and bound elements are
// addressed through integer handles; closing a file evicts everything keyed
// by its handle.
type Manager struct {
	mu sync.RWMutex

	filesMu    sync.Mutex
	descs      []FileDescription
	files      map[uint32]*File
	byID       map[string]*File
	nextHandle atomic.Uint32

	tracker      ModificationTracker
	resolveCache *stampedCache[resolveKey, *ResolutionMap]
	nsCache      *stampedCache[nsCacheKey, []string]
	logger       *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager logger (default: no-op).
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = loggerOrNop(l) }
}

// WithTracker installs a global modification tracker. Without it every file
// uses its document's own counter.
func WithTracker(t ModificationTracker) ManagerOption {
	return func(m *Manager) { m.tracker = t }
}

// WithDescriptions registers file descriptions, tried in order by Open.
func WithDescriptions(ds ...FileDescription) ManagerOption {
	return func(m *Manager) { m.descs = append(m.descs, ds...) }
}

// NewManager creates a manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		files:        map[uint32]*File{},
		byID:         map[string]*File{},
		resolveCache: newStampedCache[resolveKey, *ResolutionMap](),
		nsCache:      newStampedCache[nsCacheKey, []string](),
		logger:       zap.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Logger returns the manager logger.
func (m *Manager) Logger() *zap.Logger { return m.logger }

// AddDescription registers another file description.
func (m *Manager) AddDescription(d FileDescription) {
	m.filesMu.Lock()
	defer m.filesMu.Unlock()
	m.descs = append(m.descs, d)
}

// Open binds doc to the first description accepting it.
func (m *Manager) Open(doc *xmltree.Document) (*File, error) {
	m.filesMu.Lock()
	descs := slices.Clone(m.descs)
	m.filesMu.Unlock()
	for _, d := range descs {
		if d.IsMyFile(doc) {
			return m.OpenAs(doc, d)
		}
	}
	name := doc.Name(doc.Root())
	return nil, Issues{Issue{
		Path:    "/" + name.Local,
		Code:    CodeNoDescription,
		Message: i18n.T(CodeNoDescription, nil),
		Params:  map[string]any{"root": name.Local, "namespace": name.Space},
	}}
}

// OpenAs binds doc to description d without consulting IsMyFile.
func (m *Manager) OpenAs(doc *xmltree.Document, d FileDescription) (*File, error) {
	if doc == nil || doc.Closed() {
		return nil, Issues{Issue{Path: "/", Code: CodeNoDescription, Message: "document is closed"}}
	}
	f := m.newFile(doc, d, doc.ID())
	m.logger.Info("file opened", zap.String("id", f.id), zap.Uint32("handle", f.handle), zap.String("root", d.RootName()))
	return f, nil
}

func (m *Manager) newFile(doc *xmltree.Document, d FileDescription, id string) *File {
	f := &File{m: m, handle: m.nextHandle.Add(1), id: id, doc: doc, desc: d}
	f.root = &boundElement{file: f, contract: d.RootContract(), node: doc.Root(), pinned: true, nsKey: d.RootContract().NamespaceKey()}
	if d.RootContract().Abstract() {
		if c := d.RootContract().Chooser().Choose(doc, doc.Root()); c != nil {
			f.root.contract = c
		}
	}
	m.filesMu.Lock()
	m.files[f.handle] = f
	m.byID[id] = f
	m.filesMu.Unlock()
	return f
}

// Close invalidates every element of f and evicts its cache entries. The
// document itself stays owned by the host.
func (m *Manager) Close(f *File) {
	if f == nil || f.closed.Swap(true) {
		return
	}
	m.filesMu.Lock()
	delete(m.files, f.handle)
	if m.byID[f.id] == f {
		delete(m.byID, f.id)
	}
	m.filesMu.Unlock()
	n := m.resolveCache.evict(f.handle) + m.nsCache.evict(f.handle)
	m.logger.Info("file closed", zap.String("id", f.id), zap.Uint32("handle", f.handle), zap.Int("evicted", n))
}

// Replace swaps the document behind f. The old file is closed (its elements
// become Invalidated); the returned file keeps f's id so anchors taken
// before the swap re-resolve against the new tree.
func (m *Manager) Replace(f *File, doc *xmltree.Document) (*File, error) {
	if f == nil {
		return nil, Issues{Issue{Path: "/", Code: CodeNoDescription, Message: "no file to replace"}}
	}
	if doc == nil || doc.Closed() || !f.desc.IsMyFile(doc) {
		return nil, Issues{Issue{Path: "/", Code: CodeNoDescription, Message: i18n.T(CodeNoDescription, nil)}}
	}
	m.Close(f)
	nf := m.newFile(doc, f.desc, f.id)
	m.logger.Info("file replaced", zap.String("id", nf.id), zap.Uint32("old", f.handle), zap.Uint32("handle", nf.handle))
	return nf, nil
}

// FileByID returns the open file with the given id.
func (m *Manager) FileByID(id string) (*File, bool) {
	m.filesMu.Lock()
	defer m.filesMu.Unlock()
	f, ok := m.byID[id]
	return f, ok
}

// Files returns the open files.
func (m *Manager) Files() []*File {
	m.filesMu.Lock()
	defer m.filesMu.Unlock()
	out := make([]*File, 0, len(m.files))
	for _, f := range m.files {
		out = append(out, f)
	}
	return out
}

// CacheStats sums the resolution-map and namespace caches.
func (m *Manager) CacheStats() CacheStats {
	return m.resolveCache.stats().add(m.nsCache.stats())
}

// File is a document bound to a description.
type File struct {
	m      *Manager
	handle uint32
	id     string
	doc    *xmltree.Document
	desc   FileDescription
	root   *boundElement
	closed atomic.Bool
}

// ID is stable across Replace and used by anchors.
func (f *File) ID() string { return f.id }

// Handle is the arena handle keying the file's cache entries.
func (f *File) Handle() uint32 { return f.handle }

// Document returns the backing tree.
func (f *File) Document() *xmltree.Document { return f.doc }

// Description returns the file description.
func (f *File) Description() FileDescription { return f.desc }

// Closed reports whether the file was closed or replaced.
func (f *File) Closed() bool { return f == nil || f.closed.Load() || f.doc.Closed() }

// Manager returns the owning manager.
func (f *File) Manager() *Manager { return f.m }

func (f *File) logger() *zap.Logger {
	if f == nil || f.m == nil {
		return zap.NewNop()
	}
	return f.m.logger
}

// stamp is the current modification count observed by this file's caches.
func (f *File) stamp() int64 {
	if f.m != nil && f.m.tracker != nil {
		return f.m.tracker.ModificationCount()
	}
	return f.doc.ModificationCount()
}
