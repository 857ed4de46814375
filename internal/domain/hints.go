package domain

// Hint names the setters that may accept one connection hint. Builds expose
// different setter names, so each is tried in order until one succeeds.
type Hint struct {
	Key     Key
	Setters []string
}

var ConnectionHints = []Hint{
	{Key: KeyProvider, Setters: []string{"setProvider", "setProviderURL"}},
	{Key: KeyDomain, Setters: []string{"setDomain"}},
	{Key: KeyServer, Setters: []string{"setServer", "setServerName"}},
	{Key: KeyCluster, Setters: []string{"setCluster", "setClusterName"}},
}
