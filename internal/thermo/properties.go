package thermo

import "math"

const (
	// CriticalTempF is the steam critical temperature; saturation fits pin to it.
	CriticalTempF  = 705.5
	CriticalPsia   = 3206.2
	AtmPsia        = 14.696
	KWToBtuPerSec  = 0.94782
	GpmToFt3PerSec = 0.0022280
)

// SatTempF returns the saturation temperature in °F for a pressure in psia.
func SatTempF(psia float64) float64 {
	if psia < 1 {
		psia = 1
	}
	if psia >= CriticalPsia {
		return CriticalTempF
	}
	return 115.1 * math.Pow(psia, 0.2248)
}

// SatPressPsia returns the saturation pressure in psia for a temperature in °F.
// Inverse of SatTempF.
func SatPressPsia(tF float64) float64 {
	if tF < 60 {
		tF = 60
	}
	if tF >= CriticalTempF {
		return CriticalPsia
	}
	return math.Pow(tF/115.1, 1.0/0.2248)
}

// WaterDensity returns compressed-liquid density in lbm/ft³ at tF.
// Pressure dependence is negligible across the heatup band and is ignored.
func WaterDensity(tF float64) float64 {
	rho := 62.6 - 9.7e-4*tF - 4.6e-5*tF*tF
	if rho < 40 {
		rho = 40
	}
	return rho
}

// WaterCp returns liquid specific heat in Btu/lbm·°F at tF.
func WaterCp(tF float64) float64 {
	return 1.0 + 9.0e-7*tF*tF
}

// Hfg returns the latent heat of vaporization in Btu/lbm at pressure psia.
func Hfg(psia float64) float64 {
	tsat := SatTempF(psia)
	frac := 1 - tsat/CriticalTempF
	if frac < 0 {
		frac = 0
	}
	return 1120 * math.Pow(frac, 0.38)
}

// SteamSpecificVolume returns saturated vapor specific volume in ft³/lbm.
func SteamSpecificVolume(psia float64) float64 {
	if psia < 1 {
		psia = 1
	}
	return 1190 * math.Pow(psia, -1.158)
}

// SolidPlantPressureRate returns psi per tick for a water-solid pressurizer:
// liquid expanding against a fixed volume, bled by the relief/letdown band.
// volumeDelta is the net liquid volume change in ft³ over the tick and
// systemVolume the total water-solid volume in ft³.
func SolidPlantPressureRate(volumeDelta, systemVolume float64) float64 {
	if systemVolume <= 0 {
		return 0
	}
	// Effective bulk modulus of the water-solid system, psi per unit strain.
	const bulkPsi = 8.2e4
	return bulkPsi * volumeDelta / systemVolume
}

// IsolatedHeatStep returns the pressurizer liquid temperature rise in °F for
// one tick of isolated heating. heatBtu is net (heaters minus ambient loss).
func IsolatedHeatStep(waterMassLbm, waterTempF, heatBtu float64) float64 {
	if waterMassLbm <= 0 {
		return 0
	}
	return heatBtu / (waterMassLbm * WaterCp(waterTempF))
}

// AmbientLoss returns a heat-loss rate in Btu/s from a component at tF to
// containment ambient, scaled by a UA product in Btu/s·°F.
func AmbientLoss(tF, ambientF, ua float64) float64 {
	dt := tF - ambientF
	if dt < 0 {
		return 0
	}
	return ua * dt
}
