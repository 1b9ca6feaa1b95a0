package cache

import "fmt"

// Keyer builds cache keys. Implementations decide the key layout; callers
// only supply the inputs that determine the cached value.
type Keyer interface {
	// OverlayKey identifies a rasterized overlay layer.
	OverlayKey(kind, name, assetHash string, size int) string

	// ArtifactKey identifies a rendered avatar.
	ArtifactKey(paramsHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds the render inputs besides the avatar parameters.
type ArtifactKeyOpts struct {
	EyesHash  string `json:"eyes"`
	MouthHash string `json:"mouth"`
	Size      int    `json:"size"`
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// OverlayKey returns "overlay:<kind>:<name>:<size>:<assetHash>". The name is
// kept readable so entries can be found by hand in Redis.
func (DefaultKeyer) OverlayKey(kind, name, assetHash string, size int) string {
	return fmt.Sprintf("overlay:%s:%s:%d:%s", kind, name, size, assetHash)
}

// ArtifactKey hashes the parameter hash together with opts.
func (DefaultKeyer) ArtifactKey(paramsHash string, opts ArtifactKeyOpts) string {
	return hashKey("avatar", paramsHash, opts)
}

var _ Keyer = DefaultKeyer{}
