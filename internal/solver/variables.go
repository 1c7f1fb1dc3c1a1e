package solver

import "strings"

// refPrefix is tolerated in front of variable names ("_ref_v" == "v").
const refPrefix = "_ref_"

// variables are the state variables a recorder may bind to.
var variables = map[string]bool{
	"v":     true, // membrane potential [mV]
	"i":     true, // total membrane current
	"i_cap": true, // capacitive current
	"i_pas": true, // passive leak current
	"ina":   true, // sodium current
	"ik":    true, // potassium current
}

// NormalizeVariable strips the reference prefix from a variable name.
func NormalizeVariable(name string) string {
	return strings.TrimPrefix(name, refPrefix)
}

// IsVariable reports whether name (after normalization) is recordable.
func IsVariable(name string) bool {
	return variables[NormalizeVariable(name)]
}
