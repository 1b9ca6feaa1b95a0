package cache

import "strings"

type scopedKeyer struct {
	Keyer
	scope string
}

// NewScopedKeyer namespaces every key from inner under scope, so several
// deployments can share one Redis database. A trailing ':' is added to scope
// when missing. A nil inner means [NewDefaultKeyer].
func NewScopedKeyer(inner Keyer, scope string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	if scope != "" && !strings.HasSuffix(scope, ":") {
		scope += ":"
	}
	return scopedKeyer{Keyer: inner, scope: scope}
}

func (k scopedKeyer) OverlayKey(kind, name, assetHash string, size int) string {
	return k.scope + k.Keyer.OverlayKey(kind, name, assetHash, size)
}

func (k scopedKeyer) ArtifactKey(paramsHash string, opts ArtifactKeyOpts) string {
	return k.scope + k.Keyer.ArtifactKey(paramsHash, opts)
}
