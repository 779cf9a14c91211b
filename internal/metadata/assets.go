package metadata

import "strings"

// AssetKind is one of the media kinds the catalog understands.
type AssetKind string

const (
	AssetCover       AssetKind = "cover"
	AssetLogo        AssetKind = "logo"
	AssetVideo       AssetKind = "video"
	AssetScreenshot  AssetKind = "screenshot"
	AssetBackground  AssetKind = "background"
	AssetBanner      AssetKind = "banner"
	AssetTitleScreen AssetKind = "titlescreen"
)

// assetAliases is matched in order, so an alias must come before any
// shorter alias it starts with.
var assetAliases = []struct {
	alias string
	kind  AssetKind
}{
	{"boxfront", AssetCover},
	{"boxart", AssetCover},
	{"cover", AssetCover},
	{"poster", AssetCover},
	{"logo", AssetLogo},
	{"wheel", AssetLogo},
	{"marquee", AssetLogo},
	{"video", AssetVideo},
	{"screenshot", AssetScreenshot},
	{"screen", AssetScreenshot},
	{"background", AssetBackground},
	{"fanart", AssetBackground},
	{"banner", AssetBanner},
	{"titlescreen", AssetTitleScreen},
}

// LookupAsset maps an "assets.<kind>" key to its asset kind. The kind is
// compared without case or separators and matches an alias by prefix, so
// "assets.box_front" and "assets.screenshots" both resolve.
func LookupAsset(key string) (AssetKind, bool) {
	key = normalizeKey(key)
	if !strings.HasPrefix(key, "assets.") {
		return "", false
	}
	kind := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimPrefix(key, "assets."))
	if kind == "" {
		return "", false
	}
	for _, a := range assetAliases {
		if strings.HasPrefix(kind, a.alias) {
			return a.kind, true
		}
	}
	return "", false
}
