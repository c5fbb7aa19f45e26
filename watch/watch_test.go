package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/reoring/xdom"
	"github.com/reoring/xdom/watch"
	"github.com/reoring/xdom/xmltree"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type Note struct {
	xdom.Node `xdom:"note"`

	Body xdom.Leaf[string]
}

func newManager(t *testing.T, counter *xmltree.Counter) *xdom.Manager {
	t.Helper()
	desc, err := xdom.NewDescription[Note](xdom.NewRegistry())
	require.NoError(t, err)
	return xdom.NewManager(xdom.WithDescriptions(desc), xdom.WithTracker(counter), xdom.WithLogger(zaptest.NewLogger(t)))
}

func body(t *testing.T, m *xdom.Manager, f *xdom.File) string {
	t.Helper()
	var out string
	require.NoError(t, m.Read(context.Background(), func(r *xdom.ReadAccess) error {
		out = xdom.Root[Note](r, f).Body.Get()
		return nil
	}))
	return out
}

func TestWatcher_ReloadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<note><body>v1</body></note>`), 0o644))

	counter := &xmltree.Counter{}
	m := newManager(t, counter)
	reloads := make(chan watch.Reload, 4)
	w, err := watch.New(m,
		watch.WithCounter(counter),
		watch.WithDebounce(20*time.Millisecond),
		watch.WithLogger(zaptest.NewLogger(t)),
		watch.OnReload(func(r watch.Reload) { reloads <- r }),
	)
	require.NoError(t, err)

	f, err := w.Open(path)
	require.NoError(t, err)
	again, err := w.Open(path)
	require.NoError(t, err)
	require.Same(t, f, again)
	require.Equal(t, "v1", body(t, m, f))

	var old xdom.Element
	require.NoError(t, m.Read(context.Background(), func(r *xdom.ReadAccess) error {
		old = r.Root(f)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	stamp := counter.ModificationCount()
	require.NoError(t, os.WriteFile(path, []byte(`<note><body>v2</body></note>`), 0o644))

	// a reload may catch the file mid-write; wait for one that parsed
	var r watch.Reload
	deadline := time.After(5 * time.Second)
	for r.File == nil {
		select {
		case r = <-reloads:
		case <-deadline:
			t.Fatal("no successful reload observed")
		}
	}
	require.Equal(t, f.ID(), r.File.ID())
	require.Equal(t, "v2", body(t, m, r.File))
	require.True(t, f.Closed())
	require.Equal(t, xdom.Invalidated, old.State())
	require.Greater(t, counter.ModificationCount(), stamp)

	cur, ok := w.File(path)
	require.True(t, ok)
	require.Same(t, r.File, cur)

	require.NoError(t, w.Close())
	<-w.Done()
	_, err = w.Open(filepath.Join(dir, "other.xml"))
	require.ErrorIs(t, err, watch.ErrClosed)
}

func TestWatcher_BrokenFileKeepsOldTree(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<note><body>v1</body></note>`), 0o644))

	m := newManager(t, &xmltree.Counter{})
	reloads := make(chan watch.Reload, 4)
	w, err := watch.New(m, watch.WithDebounce(20*time.Millisecond), watch.OnReload(func(r watch.Reload) { reloads <- r }))
	require.NoError(t, err)
	f, err := w.Open(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte(`<note><body>`), 0o644))
	select {
	case r := <-reloads:
		require.Error(t, r.Err)
		require.Nil(t, r.File)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
	require.False(t, f.Closed())
	require.Equal(t, "v1", body(t, m, f))

	cancel()
	<-w.Done()
	require.NoError(t, w.Close())
}

func TestWatcher_ForgetClosesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<note/>`), 0o644))

	m := newManager(t, &xmltree.Counter{})
	w, err := watch.New(m)
	require.NoError(t, err)
	defer w.Close()

	f, err := w.Open(path)
	require.NoError(t, err)
	w.Forget(path)
	require.True(t, f.Closed())
	_, ok := w.File(path)
	require.False(t, ok)

	_, err = w.Open(filepath.Join(dir, "missing.xml"))
	require.Error(t, err)
}
