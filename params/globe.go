package params

import (
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/mitchellh/go-homedir"
	"path/filepath"
)

func init() {
	metrics.Enabled = true
}

const (
	TileDBName   = "tiles.db"
	TileDBBucket = "tiles"
)

// DatadirRoot is where globe keeps its tile store.
var DatadirRoot = func() string {
	home, err := homedir.Dir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(home, ".globe")
}()
