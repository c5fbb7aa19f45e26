package xdom

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Registry compiles Go contract types once and keeps the results for the
// lifetime of the process. It also holds converters and type choosers used
// during compilation.
type Registry struct {
	mu         sync.Mutex
	naming     NameStrategy
	converters map[reflect.Type]*AnyConverter
	named      map[string]*AnyConverter
	choosers   map[reflect.Type]ChooserFactory
	contracts  map[reflect.Type]*Contract
	logger     *zap.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithNaming sets the strategy deriving XML names from field names.
func WithNaming(s NameStrategy) RegistryOption {
	return func(r *Registry) {
		if s != nil {
			r.naming = s
		}
	}
}

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) { r.logger = loggerOrNop(l) }
}

// NewRegistry creates an empty registry with the built-in named converters.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		naming:     HyphenNames,
		converters: map[reflect.Type]*AnyConverter{},
		named:      builtinNamed(),
		choosers:   map[reflect.Type]ChooserFactory{},
		contracts:  map[reflect.Type]*Contract{},
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry { return defaultRegistry }

// Naming returns the registry's naming strategy.
func (r *Registry) Naming() NameStrategy { return r.naming }

// Register compiles contract type T (a struct embedding Node, or an
// interface with a registered chooser). Registering twice returns the same
// contract. On failure nothing compiled during the call is kept.
func Register[T any](r *Registry) (*Contract, error) {
	return r.Register(reflect.TypeOf((*T)(nil)).Elem())
}

// MustRegister is Register that panics on error.
func MustRegister[T any](r *Registry) *Contract {
	c, err := Register[T](r)
	if err != nil {
		panic(err)
	}
	return c
}

// ContractOf returns the contract of T, registering it on first use.
func ContractOf[T any](r *Registry) (*Contract, error) { return Register[T](r) }

// Register is the reflect.Type form of Register[T].
func (r *Registry) Register(t reflect.Type) (*Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := &compileState{r: r}
	c, iss := st.contract(t)
	if len(iss) > 0 {
		for _, added := range st.added {
			delete(r.contracts, added)
		}
		r.logger.Debug("contract rejected", zap.Stringer("type", t), zap.Error(iss))
		return nil, iss
	}
	for _, added := range st.added {
		r.logger.Debug("contract registered", zap.Stringer("type", added))
	}
	return c, nil
}

// Lookup returns an already registered contract.
func (r *Registry) Lookup(t reflect.Type) (*Contract, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contracts[t]
	return c, ok
}

// RegisterConverter makes c the converter of every value slot of type T
// compiled afterwards.
func RegisterConverter[T any](r *Registry, c Converter[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[reflect.TypeOf((*T)(nil)).Elem()] = ConverterOf(c)
}

// RegisterNamedConverter makes c selectable with converter=name.
func (r *Registry) RegisterNamedConverter(name string, c *AnyConverter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.named[name] = c
}

// NamedConverter looks up a converter registered by name.
func (r *Registry) NamedConverter(name string) (*AnyConverter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.named[name]
	return c, ok
}

// RegisterChooser installs the chooser factory for polymorphic slots typed
// with interface I.
func RegisterChooser[I any](r *Registry, f ChooserFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.choosers[reflect.TypeOf((*I)(nil)).Elem()] = f
}

// RegisterMergeStrategy installs a custom merge strategy for a slot of C.
func RegisterMergeStrategy[C any](r *Registry, field string, s MergeStrategy) error {
	c, err := Register[C](r)
	if err != nil {
		return err
	}
	return c.SetMergeStrategy(field, s)
}

type compileState struct {
	r     *Registry
	added []reflect.Type
}

func typeIssue(t reflect.Type, field, code, msg string) Issue {
	p := "/" + t.String()
	if field != "" {
		p += "/" + field
	}
	return Issue{Path: p, Code: code, Message: msg}
}

func (st *compileState) lookup(t reflect.Type) (*Contract, error) {
	c, iss := st.contract(t)
	if len(iss) > 0 {
		return nil, iss
	}
	return c, nil
}

func (st *compileState) contract(t reflect.Type) (*Contract, Issues) {
	r := st.r
	if t == nil {
		return nil, Issues{Issue{Path: "/", Code: CodeInvalidContract, Message: "nil contract type"}}
	}
	if c, ok := r.contracts[t]; ok {
		return c, nil
	}
	if t.Kind() == reflect.Interface {
		return st.polymorphic(t)
	}
	nodeIdx := nodeFieldIndex(t)
	if nodeIdx < 0 {
		return nil, Issues{typeIssue(t, "", CodeInvalidContract, "contract must be a struct embedding xdom.Node")}
	}
	head, err := parseSlotTag(t.Field(nodeIdx))
	if err != nil {
		return nil, Issues{typeIssue(t, "Node", CodeInvalidContract, err.Error())}
	}
	name := head.name
	if name == "" {
		name = slotName(r.naming, t.Name(), false)
	}
	c := newContract(name)
	c.goType, c.nsKey = t, head.ns
	// published before fields compile so recursive contracts find it
	r.contracts[t] = c
	st.added = append(st.added, t)

	var iss Issues
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if i == nodeIdx || !sf.IsExported() {
			continue
		}
		tag, err := parseSlotTag(sf)
		if err != nil {
			iss = AppendIssues(iss, typeIssue(t, sf.Name, CodeInvalidContract, err.Error()))
			continue
		}
		if tag.skip {
			continue
		}
		if !reflect.PointerTo(sf.Type).Implements(slotHandleType) {
			iss = AppendIssues(iss, typeIssue(t, sf.Name, CodeUnknownSlot, fmt.Sprintf("field %s of type %s is not a slot handle", sf.Name, sf.Type)))
			continue
		}
		info := reflect.New(sf.Type).Interface().(slotHandle).slotInfo()
		d := &Descriptor{
			Field:        sf.Name,
			Kind:         info.kind,
			NamespaceKey: tag.ns,
			Index:        tag.index,
			NameValue:    tag.nameValue,
			fieldIndex:   i,
		}
		if info.kind != KindText {
			d.Name = tag.name
			if d.Name == "" {
				d.Name = slotName(r.naming, sf.Name, info.kind == KindCollection)
			}
		}
		if info.element {
			child, ciss := st.contract(info.elem)
			if len(ciss) > 0 {
				iss = AppendIssues(iss, ciss...)
				continue
			}
			d.Contract = child
		} else {
			conv, cerr := st.converter(info.elem, tag.converter)
			if cerr != nil {
				iss = AppendIssues(iss, typeIssue(t, sf.Name, CodeInvalidContract, cerr.Error()))
				continue
			}
			d.conv = conv
		}
		c.slots = append(c.slots, d)
	}
	if len(iss) == 0 {
		iss = seal(c)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	c.binder = newBinder(t, nodeIdx, c.slots)
	return c, nil
}

func (st *compileState) polymorphic(t reflect.Type) (*Contract, Issues) {
	r := st.r
	f, ok := r.choosers[t]
	if !ok {
		return nil, Issues{typeIssue(t, "", CodeInvalidContract, "polymorphic slot type has no registered chooser")}
	}
	c := newContract(slotName(r.naming, t.Name(), false))
	c.goType = t
	r.contracts[t] = c
	st.added = append(st.added, t)
	ch, err := f(func(vt reflect.Type) (*Contract, error) {
		if !vt.Implements(t) && !reflect.PointerTo(vt).Implements(t) {
			return nil, Issues{typeIssue(vt, "", CodeInvalidContract, fmt.Sprintf("variant does not implement %s", t))}
		}
		return st.lookup(vt)
	})
	if err != nil {
		if iss, ok := AsIssues(err); ok {
			return nil, iss
		}
		return nil, Issues{typeIssue(t, "", CodeInvalidContract, err.Error())}
	}
	if ch == nil || len(ch.Variants()) == 0 {
		return nil, Issues{typeIssue(t, "", CodeInvalidContract, "chooser has no variants")}
	}
	c.chooser = ch
	return c, seal(c)
}

func (st *compileState) converter(t reflect.Type, name string) (*AnyConverter, error) {
	r := st.r
	if name != "" {
		conv, ok := r.named[name]
		if !ok {
			return nil, fmt.Errorf("unknown converter %q", name)
		}
		if conv.Type() != t {
			return nil, fmt.Errorf("converter %q produces %s, slot needs %s", name, conv.Type(), t)
		}
		return conv, nil
	}
	if conv, ok := r.converters[t]; ok {
		return conv, nil
	}
	if isContractType(t) || (t.Kind() == reflect.Interface && r.choosers[t] != nil) {
		target, iss := st.contract(t)
		if len(iss) > 0 {
			return nil, iss
		}
		return ReferenceConverter(target), nil
	}
	if conv := builtinConverter(t); conv != nil {
		return conv, nil
	}
	return nil, fmt.Errorf("no converter for %s", t)
}
