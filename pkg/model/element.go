package model

// Element is a single program member viewed together with its owner.
// It is the unit pointcuts are evaluated against.
type Element struct {
	Owner  *Type
	Member *Member
}

// QualifiedName returns "Owner->member" for instance members and
// "Owner::member" for static ones.
func (e Element) QualifiedName() string {
	sep := "->"
	if e.Member.IsStatic() {
		sep = "::"
	}
	return e.Owner.QualifiedName() + sep + e.Member.Name
}

// Parameters returns the member's formal parameters.
func (e Element) Parameters() []Parameter { return e.Member.Params }

// IsStatic reports whether the member is static.
func (e Element) IsStatic() bool { return e.Member.IsStatic() }

// IsProtected reports whether the member is not publicly visible.
func (e Element) IsProtected() bool { return e.Member.Visibility != Public }

// Location returns where the member is declared, falling back to its owner.
func (e Element) Location() Location {
	if e.Member.Location.File != "" {
		return e.Member.Location
	}
	return e.Owner.Location
}

// Kind returns the member kind.
func (e Element) Kind() Kind { return e.Member.Kind }

func (e Element) String() string { return e.QualifiedName() }

// Source exposes a structural model. Implementations must return the same
// types for the lifetime of a weave.
type Source interface {
	Types() ([]*Type, error)
	// Kinds lists the member kinds this source can describe.
	Kinds() []Kind
}

// Supports reports whether src models members of kind k.
func Supports(src Source, k Kind) bool {
	for _, sk := range src.Kinds() {
		if sk == k {
			return true
		}
	}
	return false
}
