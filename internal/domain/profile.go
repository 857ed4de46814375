package domain

// Profile is a set of capability candidates for one server build. Non-empty
// lists replace the built-in ones; aliases are merged.
type Profile struct {
	Build          string
	Operations     map[Operation][]CapabilityDescriptor
	Login          []CapabilityDescriptor
	SessionOpeners []CapabilityDescriptor
	StatusQueries  []CapabilityDescriptor
	Aliases        AliasTable
}

func (p Profile) IsEmpty() bool {
	return len(p.Operations) == 0 && len(p.Login) == 0 && len(p.SessionOpeners) == 0 &&
		len(p.StatusQueries) == 0 && len(p.Aliases) == 0
}
