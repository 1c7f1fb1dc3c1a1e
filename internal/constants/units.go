package constants

import "strings"

// micronSpellings are unit tags accepted as linear length in microns.
var micronSpellings = map[string]bool{
	"um":          true,
	"µm":          true,
	"μm":          true,
	"micron":      true,
	"microns":     true,
	"micrometer":  true,
	"micrometers": true,
	"micrometre":  true,
	"micrometres": true,
}

// dimensionless are unit tags that carry no length information.
var dimensionless = map[string]bool{
	"":              true,
	"dimensionless": true,
	"none":          true,
}

// IsMicrons returns true if the unit tag names microns.
func IsMicrons(units string) bool {
	return micronSpellings[normalizeUnit(units)]
}

// IsDimensionless returns true if the unit tag carries no length information.
func IsDimensionless(units string) bool {
	return dimensionless[normalizeUnit(units)]
}

func normalizeUnit(units string) string {
	u := strings.ToLower(strings.TrimSpace(units))
	// Accept a leading magnitude of one, e.g. "1 um".
	u = strings.TrimPrefix(u, "1 ")
	return strings.TrimSpace(u)
}
