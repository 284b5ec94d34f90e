// Package thermo holds the pure thermodynamic collaborators for the heatup
// engine: saturation-line and water property fits, the isolated pressurizer
// heating step, the coupled pressure-temperature-volume equilibrium solver,
// and the loop/RHR/secondary thermal correlations.
//
// Every function is f(inputs) -> outputs with no hidden state. The fits are
// calibration-grade approximations of the steam tables over the heatup band
// (100-650 °F, 15-2500 psia), not library-grade property code.
package thermo
