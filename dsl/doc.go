// Package dsl loads contracts declared in YAML or JSON instead of Go types.
//
// A spec names the root contract, the accepted root namespaces, the
// namespace key allow-lists and every contract with its slots:
//
//	root: library
//	namespaceKeys:
//	  lib: [urn:lib]
//	contracts:
//	  - name: library
//	    ns: lib
//	    slots:
//	      - {field: Name, kind: attribute, name: name}
//	      - {field: Books, kind: collection, contract: book}
//	      - {field: Favorite, kind: leaf, ref: book}
//	  - name: book
//	    slots:
//	      - {field: Title, kind: leaf, namevalue: true}
//
// Compile turns a spec into dynamic contracts and a *xdom.Description ready
// for xdom.WithDescriptions. Dynamic contracts are navigated through the
// untyped xdom.Element API.
//
// Slot kinds
//   - leaf, attribute, text: converted values. The converter defaults to
//     "string"; ref makes the value a reference to another contract.
//   - child, collection: elements bound to contract.
//   - values: repeatable child tags holding converted values.
package dsl
