package version

// Set at build time with -ldflags "-X github.com/bnema/hfmctl/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
)
