package canopy

// Version is the canopy release, overridden at build time with
// -ldflags "-X github.com/aretw0/canopy.Version=...".
var Version = "dev"
