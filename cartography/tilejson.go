package cartography

import (
	"context"
	"errors"
	"fmt"
	"github.com/tidwall/gjson"
	"io"
	"net/http"
	"strings"
)

var ErrNoTiles = errors.New("tilejson: no tile urls")

// TileJSON is the subset of a TileJSON 2.x/3.x document the engine reads.
type TileJSON struct {
	Name        string
	Attribution string
	Scheme      string
	Tiles       []string
	MinZoom     int
	MaxZoom     int
}

// ParseTileJSON reads a TileJSON document. Missing zooms default to 0 and 22.
func ParseTileJSON(data []byte) (*TileJSON, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("tilejson: invalid json")
	}
	parsed := gjson.ParseBytes(data)
	tj := &TileJSON{
		Name:        parsed.Get("name").String(),
		Attribution: parsed.Get("attribution").String(),
		Scheme:      "xyz",
		MinZoom:     0,
		MaxZoom:     22,
	}
	if v := parsed.Get("scheme"); v.Exists() {
		tj.Scheme = v.String()
	}
	if v := parsed.Get("minzoom"); v.Exists() {
		tj.MinZoom = int(v.Int())
	}
	if v := parsed.Get("maxzoom"); v.Exists() {
		tj.MaxZoom = int(v.Int())
	}
	parsed.Get("tiles").ForEach(func(_, value gjson.Result) bool {
		if s := value.String(); s != "" {
			tj.Tiles = append(tj.Tiles, s)
		}
		return true
	})
	if len(tj.Tiles) == 0 {
		return nil, ErrNoTiles
	}
	if tj.Scheme != "xyz" {
		return nil, fmt.Errorf("tilejson: unsupported scheme %q", tj.Scheme)
	}
	if tj.MinZoom < 0 || tj.MaxZoom > MaxZoom || tj.MinZoom > tj.MaxZoom {
		return nil, fmt.Errorf("tilejson: bad zoom range [%d, %d]", tj.MinZoom, tj.MaxZoom)
	}
	for _, tmpl := range tj.Tiles {
		for _, p := range []string{"{z}", "{x}", "{y}"} {
			if !strings.Contains(tmpl, p) {
				return nil, fmt.Errorf("tilejson: template %q lacks %s", tmpl, p)
			}
		}
	}
	return tj, nil
}

// Template is the first tile url; the rest are mirrors.
func (tj *TileJSON) Template() string {
	return tj.Tiles[0]
}

// FetchTileJSON gets and parses the document at url.
func FetchTileJSON(ctx context.Context, client *http.Client, url string) (*TileJSON, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tilejson: %s: %s", url, res.Status)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return ParseTileJSON(data)
}
