package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSpec = `
root: library
namespaceKeys:
  lib: [urn:lib]
contracts:
  - name: library
    ns: lib
    slots:
      - {field: Name, kind: attribute, name: name}
      - {field: Books, kind: collection, contract: book}
      - {field: Favorite, kind: leaf, ref: book}
  - name: book
    slots:
      - {field: Title, kind: leaf, namevalue: true}
      - {field: Year, kind: leaf, converter: int}
      - {field: Published, kind: leaf, converter: date}
`

const testDoc = `<library xmlns="urn:lib" name="main">
	<book><title>A</title><year>1999</year></book>
	<book><title>B</title><year>soon</year><published>2020-05-01</published></book>
	<favorite>B</favorite>
</library>`

type env struct {
	dir  string
	spec string
	doc  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{dir: dir, spec: filepath.Join(dir, "xdom.yaml"), doc: filepath.Join(dir, "library.xml")}
	require.NoError(t, os.WriteFile(e.spec, []byte(testSpec), 0o644))
	require.NoError(t, os.WriteFile(e.doc, []byte(testDoc), 0o644))
	return e
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Execute(context.Background(), &out, append([]string{"--spec", e.spec}, args...))
	return out.String(), err
}

func TestQuery(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "query", e.doc, "/library/book[1]/title")
	require.NoError(t, err)
	require.Equal(t, "B\n", out)

	out, err = e.run(t, "query", e.doc, "/library/@name")
	require.NoError(t, err)
	require.Equal(t, "main\n", out)

	out, err = e.run(t, "query", e.doc, "/library/book[0]")
	require.NoError(t, err)
	require.Equal(t, "/library/book[0]\tA\n", out)

	// unconvertible text is still printed
	out, err = e.run(t, "query", e.doc, "/library/book[1]/year")
	require.NoError(t, err)
	require.Equal(t, "soon\n", out)

	_, err = e.run(t, "query", e.doc, "/library/book[5]")
	require.ErrorContains(t, err, "has 2 book items")
	_, err = e.run(t, "query", e.doc, "/library/shelf")
	require.ErrorContains(t, err, `no slot "shelf"`)
	_, err = e.run(t, "query", e.doc, "/library/book[0]/published")
	require.ErrorContains(t, err, "is not set")
	_, err = e.run(t, "query", e.doc, "library")
	require.Error(t, err)
}

func TestVariants_ListsReferenceTargets(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "variants", e.doc, "/library/favorite")
	require.NoError(t, err)
	require.Equal(t, "A\t/library/book[0]\nB\t/library/book[1]\n", out)

	_, err = e.run(t, "variants", e.doc, "/library/book[0]/year")
	require.ErrorContains(t, err, "does not enumerate variants")
}

func TestAnchor_RoundTripAcrossRuns(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "anchor", e.doc, "/library/book[1]")
	require.NoError(t, err)
	anchor := strings.TrimSpace(out)
	require.Contains(t, anchor, `"steps"`)

	out, err = e.run(t, "anchor", "--resolve", e.doc, anchor)
	require.NoError(t, err)
	require.Equal(t, "/library/book[1]\n", out)

	_, err = e.run(t, "anchor", e.doc, "/library/@name")
	require.ErrorContains(t, err, "anchors address elements")
}

func TestOverlay_EditsPersistAndApply(t *testing.T) {
	e := newEnv(t)
	store := filepath.Join(e.dir, "overlays.yaml")

	_, err := e.run(t, "overlay", "show", "lib")
	require.ErrorContains(t, err, "--overlays is required")

	out, err := e.run(t, "--overlays", store, "overlay", "add", "lib", "urn:other")
	require.NoError(t, err)
	require.Equal(t, "  urn:lib\n+ urn:other\n", out)

	out, err = e.run(t, "--overlays", store, "overlay", "remove", "lib", "urn:lib")
	require.NoError(t, err)
	require.Equal(t, "+ urn:other\n- urn:lib\n", out)

	out, err = e.run(t, "--overlays", store, "overlay", "show", "lib")
	require.NoError(t, err)
	require.Equal(t, "+ urn:other\n- urn:lib\n", out)

	// with urn:lib removed the books no longer match
	_, err = e.run(t, "--overlays", store, "query", e.doc, "/library/book[0]")
	require.ErrorContains(t, err, "has 0 book items")

	_, err = e.run(t, "--overlays", store, "overlay", "show", "nope")
	require.ErrorContains(t, err, `no namespace key "nope"`)
}
