// Package xdom binds XML trees to declarative element contracts.
//
//   - Contracts are Go structs embedding xdom.Node whose fields are slot handles
//     (Leaf, Attr, Text, Child, Children, Values), or dynamic contracts built
//     with NewContract or loaded by package dsl.
//   - A Registry compiles each contract once; reflection never runs on the
//     navigation path.
//   - A Manager opens documents against FileDescriptions and hands out
//     shared (Read) or exclusive (Write) access scopes.
//   - Converters map text to typed values; contract-typed values resolve by
//     name within the file's resolve scope.
//   - MergeModels presents several same-contract elements as one.
//   - Anchors re-locate elements after unrelated edits.
//
// Design policy:
//   - Keep only public APIs in the root package; the arena tree lives in
//     xmltree, codecs in codec, the spec loader in dsl and the CLI under
//     cmd/xdom.
//   - Conversion and resolution failures are reported as Issues and never
//     panic. Misusing an element's lifecycle panics with *StructuralViolation.
//
// Typical usage:
//
//	type Book struct {
//		xdom.Node
//		Title xdom.Leaf[string] `xdom:",namevalue"`
//	}
//	type Library struct {
//		xdom.Node `xdom:"library"`
//		Books xdom.Children[Book]
//	}
//
//	desc, _ := xdom.NewDescription[Library](xdom.DefaultRegistry())
//	m := xdom.NewManager(xdom.WithDescriptions(desc))
//	f, _ := m.Open(doc)
//	_ = m.Write(ctx, func(w *xdom.WriteAccess) error {
//		lib := xdom.Root[Library](w, f)
//		lib.Books.Append(w).Title.Set(w, "A")
//		return nil
//	})
package xdom
