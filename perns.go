package analyzer

// perNs is the internal dual-slot resolution outcome: at most one handle in
// the type namespace and one in the value namespace, filled independently.
type perNs struct {
	types  defID
	values defID
}

func perNsNone() perNs { return perNs{} }

func perNsTypes(id defID) perNs { return perNs{types: id} }

func perNsValues(id defID) perNs { return perNs{values: id} }

func perNsBoth(t, v defID) perNs { return perNs{types: t, values: v} }

func (p perNs) isNone() bool { return p.types == noDef && p.values == noDef }

// PerNs is a namespace pair: the public resolution outcome for one name.
// Either slot may be empty; a hit in one namespace says nothing about the
// other. The zero value is the fully empty pair.
type PerNs struct {
	a   *Analysis
	per perNs
}

func (a *Analysis) wrapPerNs(per perNs) PerNs {
	return PerNs{a: a, per: per}
}

// IsNone reports whether both slots are empty.
func (p PerNs) IsNone() bool { return p.per.isNone() }

// Types returns the type-namespace entity, if any.
func (p PerNs) Types() (Def, bool) {
	if p.per.types == noDef {
		return nil, false
	}
	return p.a.resolveDef(p.per.types), true
}

// Values returns the value-namespace entity, if any.
func (p PerNs) Values() (Def, bool) {
	if p.per.values == noDef {
		return nil, false
	}
	return p.a.resolveDef(p.per.values), true
}
