package dialect

import "github.com/mjonuschat/acceleration-control/pkg/feature"

// MarkerTable maps feature types to the literal comment a slicer emits at
// the start of the corresponding toolpath segment.
type MarkerTable struct {
	name    string
	markers map[feature.FeatureType]string
	reverse map[string]feature.FeatureType
}

func newMarkerTable(name string, markers map[feature.FeatureType]string) *MarkerTable {
	t := &MarkerTable{
		name:    name,
		markers: markers,
		reverse: make(map[string]feature.FeatureType, len(markers)),
	}
	for ft, m := range markers {
		t.reverse[m] = ft
	}
	return t
}

// Name returns the table name.
func (t *MarkerTable) Name() string {
	return t.name
}

// Marker returns the marker text for ft.
func (t *MarkerTable) Marker(ft feature.FeatureType) (string, bool) {
	m, ok := t.markers[ft]
	return m, ok
}

// Lookup returns the feature whose marker equals line exactly.
func (t *MarkerTable) Lookup(line string) (feature.FeatureType, bool) {
	ft, ok := t.reverse[line]
	return ft, ok
}

var slic3rMarkers = newMarkerTable("slic3r", map[feature.FeatureType]string{
	feature.FirstLayer:               ";TYPE:First layer",
	feature.Travel:                   ";TYPE:Travel",
	feature.Custom:                   ";TYPE:Custom",
	feature.ExternalPerimeter:        ";TYPE:External perimeter",
	feature.OverhangPerimeter:        ";TYPE:Overhang perimeter",
	feature.InternalPerimeter:        ";TYPE:Internal perimeter",
	feature.TopSolidInfill:           ";TYPE:Top solid infill",
	feature.SolidInfill:              ";TYPE:Solid infill",
	feature.InternalInfill:           ";TYPE:Internal infill",
	feature.BridgeInfill:             ";TYPE:Bridge infill",
	feature.InternalBridgeInfill:     ";TYPE:Internal bridge infill",
	feature.ThinWall:                 ";TYPE:Thin wall",
	feature.GapFill:                  ";TYPE:Gap fill",
	feature.Skirt:                    ";TYPE:Skirt",
	feature.SupportMaterial:          ";TYPE:Support material",
	feature.SupportMaterialInterface: ";TYPE:Support material interface",
})

// PrusaSlicer renamed the internal perimeter and merged skirt and brim.
var prusaMarkers = newMarkerTable("prusaslicer", map[feature.FeatureType]string{
	feature.FirstLayer:               ";TYPE:First layer",
	feature.Travel:                   ";TYPE:Travel",
	feature.Custom:                   ";TYPE:Custom",
	feature.ExternalPerimeter:        ";TYPE:External perimeter",
	feature.OverhangPerimeter:        ";TYPE:Overhang perimeter",
	feature.InternalPerimeter:        ";TYPE:Perimeter",
	feature.TopSolidInfill:           ";TYPE:Top solid infill",
	feature.SolidInfill:              ";TYPE:Solid infill",
	feature.InternalInfill:           ";TYPE:Internal infill",
	feature.BridgeInfill:             ";TYPE:Bridge infill",
	feature.InternalBridgeInfill:     ";TYPE:Internal bridge infill",
	feature.ThinWall:                 ";TYPE:Thin wall",
	feature.GapFill:                  ";TYPE:Gap fill",
	feature.Skirt:                    ";TYPE:Skirt/Brim",
	feature.SupportMaterial:          ";TYPE:Support material",
	feature.SupportMaterialInterface: ";TYPE:Support material interface",
})

var orcaMarkers = newMarkerTable("orcaslicer", map[feature.FeatureType]string{
	feature.FirstLayer:               ";TYPE:Bottom surface",
	feature.Travel:                   ";TYPE:Travel",
	feature.Custom:                   ";TYPE:Custom",
	feature.ExternalPerimeter:        ";TYPE:Outer wall",
	feature.OverhangPerimeter:        ";TYPE:Overhang wall",
	feature.InternalPerimeter:        ";TYPE:Inner wall",
	feature.TopSolidInfill:           ";TYPE:Top surface",
	feature.SolidInfill:              ";TYPE:Internal solid infill",
	feature.InternalInfill:           ";TYPE:Sparse infill",
	feature.BridgeInfill:             ";TYPE:Bridge",
	feature.InternalBridgeInfill:     ";TYPE:Internal bridge infill",
	feature.ThinWall:                 ";TYPE:Thin wall",
	feature.GapFill:                  ";TYPE:Gap infill",
	feature.Skirt:                    ";TYPE:Skirt",
	feature.SupportMaterial:          ";TYPE:Support",
	feature.SupportMaterialInterface: ";TYPE:Support interface",
})
