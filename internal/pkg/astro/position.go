package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/planetelements"
	"github.com/soniakeys/meeus/v3/refraction"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

var planetIndex = map[Body]int{
	Mercury: planetelements.Mercury,
	Venus:   planetelements.Venus,
	Mars:    planetelements.Mars,
	Jupiter: planetelements.Jupiter,
	Saturn:  planetelements.Saturn,
}

// ecliptic returns the geocentric ecliptic longitude and latitude of b,
// referred to the mean equinox of date, and its distance (AU; km for the
// Moon).
func ecliptic(b Body, jde float64) (lon, lat unit.Angle, dist float64) {
	T := base.J2000Century(jde)
	switch b {
	case Sun:
		s, _ := solar.True(T)
		return s, 0, solar.Radius(T)
	case Moon:
		return moonposition.Position(jde)
	}

	// Heliocentric rectangular position from the planet's mean elements,
	// shifted to the Earth by adding the Sun's geocentric vector.
	var e planetelements.Elements
	planetelements.Mean(planetIndex[b], jde, &e)
	M := e.Lon.Rad() - e.Peri.Rad()
	w := e.Peri.Rad() - e.Node.Rad()
	E := eccentricAnomaly(M, e.Ecc)
	v := 2 * math.Atan(math.Sqrt((1+e.Ecc)/(1-e.Ecc))*math.Tan(E/2))
	r := e.Axis * (1 - e.Ecc*math.Cos(E))

	u := v + w
	sN, cN := math.Sincos(e.Node.Rad())
	si, ci := math.Sincos(e.Inc.Rad())
	su, cu := math.Sincos(u)
	x := r * (cN*cu - sN*su*ci)
	y := r * (sN*cu + cN*su*ci)
	z := r * su * si

	s, _ := solar.True(T)
	R := solar.Radius(T)
	ss, cs := math.Sincos(s.Rad())
	x += R * cs
	y += R * ss

	return unit.Angle(math.Atan2(y, x)), unit.Angle(math.Atan2(z, math.Hypot(x, y))), math.Sqrt(x*x + y*y + z*z)
}

// eccentricAnomaly solves Kepler's equation by Newton iteration.
func eccentricAnomaly(M, e float64) float64 {
	E := M + e*math.Sin(M)
	for i := 0; i < 20; i++ {
		dE := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < 1e-12 {
			break
		}
	}
	return E
}

// apparent returns the geocentric apparent right ascension and declination
// of b: nutation applied, true obliquity of date.
func apparent(b Body, jde float64) (unit.RA, unit.Angle, float64) {
	if b == Sun {
		ra, dec := solar.ApparentEquatorial(jde)
		return ra, dec, solar.Radius(base.J2000Century(jde))
	}
	lon, lat, dist := ecliptic(b, jde)
	dPsi, dEps := nutation.Nutation(jde)
	eps := nutation.MeanObliquity(jde) + dEps
	ra, dec := coord.EclToEq(lon+dPsi, lat, math.Sin(eps.Rad()), math.Cos(eps.Rad()))
	return ra, dec, dist
}

// ToEquatorial returns the geocentric apparent position of b at t.
func ToEquatorial(b Body, t time.Time) Equatorial {
	ra, dec, dist := apparent(b, JulianDay(t))
	return Equatorial{RA: rev(ra.Rad() * rad2deg), Dec: dec.Rad() * rad2deg, Dist: dist}
}

// geometric returns the airless geocentric altitude and azimuth, along with
// the body's distance.
func geometric(b Body, t time.Time, obs Observer) (Horizontal, float64) {
	jd := JulianDay(t)
	ra, dec, dist := apparent(b, jd)
	// meeus measures longitude westward and azimuth from the south.
	A, h := coord.EqToHz(ra, dec, unit.AngleFromDeg(obs.Lat), unit.AngleFromDeg(-obs.Lon), sidereal.Apparent(jd))
	return Horizontal{Altitude: h.Rad() * rad2deg, Azimuth: rev(A.Rad()*rad2deg + 180)}, dist
}

// moonParallax is the Moon's horizontal parallax in degrees at distance km.
func moonParallax(km float64) float64 {
	return moonposition.Parallax(km).Rad() * rad2deg
}

// Refraction returns the atmospheric lift in degrees for a true altitude h
// (standard pressure and temperature). Below -2 degrees it is zero.
func Refraction(h float64) float64 {
	if h < -2 {
		return 0
	}
	return refraction.Saemundsson(unit.AngleFromDeg(h)).Rad() * rad2deg
}

// Position returns the apparent topocentric altitude and azimuth of b.
// The Moon's diurnal parallax is applied; refraction is applied to all.
func Position(b Body, t time.Time, obs Observer) Horizontal {
	hz, dist := geometric(b, t, obs)
	if b == Moon {
		hz.Altitude -= moonParallax(dist) * math.Cos(hz.Altitude/rad2deg)
	}
	hz.Altitude += Refraction(hz.Altitude)
	return hz
}

// MoonPhase returns the Moon's elongation from the Sun along the ecliptic
// in [0,360): 0 new, 90 first quarter, 180 full, 270 last quarter.
func MoonPhase(t time.Time) float64 {
	jde := JulianDay(t)
	moon, _, _ := moonposition.Position(jde)
	sun, _ := solar.True(base.J2000Century(jde))
	return rev((moon - sun).Rad() * rad2deg)
}
