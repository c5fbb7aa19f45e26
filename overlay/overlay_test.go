package overlay_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/reoring/xdom/overlay"
)

func TestEffective_GrowingBaseline(t *testing.T) {
	set := overlay.NewSet([]string{"x", "y"}, overlay.Delta{})
	set.Add("z")
	set.Remove("x")

	d := set.Delta()
	if diff := cmp.Diff(overlay.Delta{Added: []string{"z"}, Removed: []string{"x"}}, d); diff != "" {
		t.Fatalf("delta mismatch (-want +got):\n%s", diff)
	}

	got := overlay.Effective([]string{"x", "y", "w"}, d)
	if diff := cmp.Diff([]string{"y", "w", "z"}, got); diff != "" {
		t.Fatalf("effective mismatch (-want +got):\n%s", diff)
	}
}

func TestSet_UndoEdits(t *testing.T) {
	set := overlay.NewSet([]string{"a"}, overlay.Delta{})
	set.Remove("a")
	set.Add("a")
	set.Add("b")
	set.Remove("b")
	set.Add("a") // baseline member, no-op
	set.Remove("zz")
	require.True(t, set.Delta().Empty(), "delta = %+v", set.Delta())
	require.Equal(t, []string{"a"}, set.Effective())
	require.True(t, set.Contains("a"))
}

func TestEffective_AddedAlreadyInBaseline(t *testing.T) {
	got := overlay.Effective([]string{"a", "b"}, overlay.Delta{Added: []string{"b", "c", "c"}})
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestStore_RoundTripFormats(t *testing.T) {
	for _, name := range []string{"overlays.json", "overlays.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			s, err := overlay.Open(path)
			require.NoError(t, err)
			require.Empty(t, s.Names())

			eff := s.Edit("lib", []string{"x", "y"}, func(set *overlay.Set) {
				set.Add("z")
				set.Remove("x")
			})
			require.Equal(t, []string{"y", "z"}, eff)
			require.NoError(t, s.Save())

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			require.Contains(t, string(raw), "added")

			back, err := overlay.Open(path)
			require.NoError(t, err)
			require.Equal(t, []string{"lib"}, back.Names())
			require.Equal(t, []string{"y", "w", "z"}, overlay.Effective([]string{"x", "y", "w"}, back.Get("lib")))
		})
	}
}

func TestStore_PutEmptyDeletes(t *testing.T) {
	s, err := overlay.Open(filepath.Join(t.TempDir(), "o.json"))
	require.NoError(t, err)
	s.Put("k", overlay.Delta{Added: []string{"a"}})
	require.Len(t, s.All(), 1)
	s.Put("k", overlay.Delta{})
	require.Empty(t, s.All())
}

func TestStore_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "o.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := overlay.Open(path)
	require.Error(t, err)
}
