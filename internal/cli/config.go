package cli

import (
	"github.com/xxxsen/romcatalog/internal/config"
)

var defaultConfigPaths = []string{
	"./config.json",
	"/etc/romcatalog.json",
}

// LoadConfig resolves the configuration, preferring an explicit path.
func LoadConfig(explicit string) (*config.Config, error) {
	paths := append([]string{explicit}, defaultConfigPaths...)
	return config.LoadFirst(paths...)
}
