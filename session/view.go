package session

import (
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Basemap is a raster style a client can render under the points.
type Basemap struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TileURL     string `json:"tileUrl"`
	Attribution string `json:"attribution"`
}

// Basemaps offered to every project unless the project narrows the list.
var Basemaps = map[string]Basemap{
	"osm": {
		ID:          "osm",
		Name:        "OpenStreetMap",
		TileURL:     "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenStreetMap contributors",
	},
	"sat": {
		ID:          "sat",
		Name:        "Satellite",
		TileURL:     "https://services.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Esri",
	},
}

// Overlay is a transparent WMS raster drawn between the basemap and the points.
type Overlay struct {
	ID      string  `json:"id"`
	TileURL string  `json:"tileUrl"`
	Opacity float64 `json:"opacity"`
}

// WMSOverlay builds a GetMap tile template for layer on a WMS server in
// web mercator. An empty baseURL disables the overlay.
func WMSOverlay(baseURL, layer string) *Overlay {
	if baseURL == "" || layer == "" {
		return nil
	}
	q := url.Values{}
	q.Set("service", "WMS")
	q.Set("version", "1.1.1")
	q.Set("request", "GetMap")
	q.Set("layers", layer)
	q.Set("styles", "")
	q.Set("width", "256")
	q.Set("height", "256")
	q.Set("srs", "EPSG:3857")
	q.Set("format", "image/png")
	q.Set("transparent", "true")
	// the bbox placeholder is filled in by the map engine and must stay unescaped
	return &Overlay{
		ID:      "properties-wms",
		TileURL: fmt.Sprintf("%s?%s&bbox={bbox-epsg-3857}", baseURL, q.Encode()),
		Opacity: 0.7,
	}
}

// DefaultBasemap is used when the client does not pick one.
const DefaultBasemap = "osm"

var ErrUnknownBasemap = errors.New("unknown basemap")

// View is the server-side stand-in for the client's map: it holds the
// camera, the basemap and the last point source pushed by the syncer.
// Clients poll Snapshot and redraw when Version moves.
type View struct {
	mu          sync.RWMutex
	initialized bool
	basemap     string
	center      orb.Point
	zoom        float64
	data        *geojson.FeatureCollection
	version     uint64
}

// ViewSnapshot is what clients render.
type ViewSnapshot struct {
	Version     uint64                     `json:"version"`
	Initialized bool                       `json:"initialized"`
	Basemap     string                     `json:"basemap"`
	Center      orb.Point                  `json:"center"`
	Zoom        float64                    `json:"zoom"`
	Data        *geojson.FeatureCollection `json:"data"`
}

// NewView returns an uninitialized view looking at center.
func NewView(center orb.Point, zoom float64) *View {
	return &View{center: center, zoom: zoom, basemap: DefaultBasemap}
}

// Init marks the view ready with the given basemap; the point source can be
// filled from now on.
func (v *View) Init(basemap string) error {
	if basemap == "" {
		basemap = DefaultBasemap
	}
	if _, ok := Basemaps[basemap]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBasemap, basemap)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.initialized = true
	v.basemap = basemap
	v.version++
	return nil
}

// FlyTo re-centers the camera.
func (v *View) FlyTo(center orb.Point, zoom float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.center = center
	v.zoom = zoom
	v.version++
}

// Ready implements features.Surface.
func (v *View) Ready() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.initialized
}

// SetData implements features.Surface.
func (v *View) SetData(fc *geojson.FeatureCollection) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.initialized {
		return errors.New("view not initialized")
	}
	v.data = fc
	v.version++
	return nil
}

// Snapshot returns the current view. Data is shared and must not be mutated.
func (v *View) Snapshot() ViewSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	data := v.data
	if data == nil {
		data = geojson.NewFeatureCollection()
	}
	return ViewSnapshot{
		Version:     v.version,
		Initialized: v.initialized,
		Basemap:     v.basemap,
		Center:      v.center,
		Zoom:        v.zoom,
		Data:        data,
	}
}
