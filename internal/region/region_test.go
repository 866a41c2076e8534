package region

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

// square returns a closed square ring polygon with the given lower-left corner.
func square(lon, lat, size float64) *geom.MultiPolygon {
	flat := []float64{
		lon, lat,
		lon + size, lat,
		lon + size, lat + size,
		lon, lat + size,
		lon, lat,
	}
	return geom.NewMultiPolygonFlat(geom.XY, flat, [][]int{{len(flat)}})
}

func TestRegionsContaining_OverlappingRegions(t *testing.T) {
	c, err := NewCatalog(
		New("a", -100, 30, -80, 50),
		New("b", -95, 25, -75, 45),
		New("c", -125, 23, -105, 43),
	)
	require.NoError(t, err)

	// Inside both a and b, outside c.
	got := c.RegionsContaining(square(-90, 35, 1))
	assert.ElementsMatch(t, []string{"a", "b"}, got)
}

func TestRegionsContaining_StraddlingPolygonOmitted(t *testing.T) {
	c, err := NewCatalog(New("ne", -80, 30, -60, 50))
	require.NoError(t, err)

	assert.Empty(t, c.RegionsContaining(square(-81, 40, 2)))
}

func TestRegionsContaining_EdgeIsInside(t *testing.T) {
	c, err := NewCatalog(New("ne", -80, 30, -60, 50))
	require.NoError(t, err)

	assert.Equal(t, []string{"ne"}, c.RegionsContaining(square(-80, 30, 5)))
}

func TestRegionsContaining_EmptyOrNilPolygon(t *testing.T) {
	c := DefaultCatalog()

	assert.Empty(t, c.RegionsContaining(nil))
	assert.Empty(t, c.RegionsContaining(geom.NewMultiPolygon(geom.XY)))
}

func TestRegionsContaining_OrderIndependent(t *testing.T) {
	base := DefaultCatalog().Regions()
	probes := []*geom.MultiPolygon{
		square(-78, 40, 1),
		square(-92, 33, 0.5),
		square(-120, 35, 2),
		square(-150, 60, 1),
		square(-101, 29, 3),
	}

	want := make([][]string, len(probes))
	orig, err := NewCatalog(base...)
	require.NoError(t, err)
	for i, p := range probes {
		want[i] = orig.RegionsContaining(p)
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		shuffled := make([]Region, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		c, err := NewCatalog(shuffled...)
		require.NoError(t, err)
		for i, p := range probes {
			assert.ElementsMatch(t, want[i], c.RegionsContaining(p))
		}
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, []string{"ne", "rs", "se", "ov", "um", "weast", "nw", "south"}, c.Names())
	assert.Equal(t, domain.BBox{-80, -60, 30, 50}, c.DisplayBoxes()["ne"])
	assert.Equal(t, domain.BBox{-125, -105, 23, 43}, c.DisplayBoxes()["weast"])

	// Western Pennsylvania sits in both ne and ov.
	assert.Equal(t, []string{"ne", "ov"}, c.RegionsContaining(square(-79, 40, 1)))
}

func TestNewCatalog_Validation(t *testing.T) {
	_, err := NewCatalog()
	require.Error(t, err)

	_, err = NewCatalog(New("a", 0, 0, 1, 1), New("a", 0, 0, 2, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = NewCatalog(New("flat", 0, 0, 0, 1))
	require.ErrorIs(t, err, errInvalidExtent)

	_, err = NewCatalog(New("", 0, 0, 1, 1))
	require.Error(t, err)
}

func TestClassifier_DelegatesToCatalog(t *testing.T) {
	c, err := NewCatalog(New("ne", -80, 30, -60, 50), New("rs", -115, 30, -95, 50))
	require.NoError(t, err)

	cl := NewClassifier(c)
	got := cl.Classify(domain.ResolvedPolygon{Geometry: square(-70, 40, 1)})
	assert.Equal(t, []string{"ne"}, got)
}

func TestParseCatalog(t *testing.T) {
	data := []byte(`
regions:
  - name: ne
    extent: [-80, 30, -60, 50]
  - name: gulf
    extent: [-98, 24, -80, 31]
    display: [-100, -78, 22, 33]
`)
	c, err := ParseCatalog(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"ne", "gulf"}, c.Names())
	boxes := c.DisplayBoxes()
	assert.Equal(t, domain.BBox{-80, -60, 30, 50}, boxes["ne"])
	assert.Equal(t, domain.BBox{-100, -78, 22, 33}, boxes["gulf"])
}

func TestParseCatalog_Errors(t *testing.T) {
	cases := map[string]string{
		"bad yaml":     "regions: [",
		"short extent": "regions:\n  - name: a\n    extent: [1, 2, 3]\n",
		"bad display":  "regions:\n  - name: a\n    extent: [0, 0, 1, 1]\n    display: [1]\n",
		"no regions":   "regions: []\n",
		"inverted box": "regions:\n  - name: a\n    extent: [1, 1, 0, 0]\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog("does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read region catalog")
}
