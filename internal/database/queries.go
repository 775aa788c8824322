package database

import "github.com/smukkama/solar-forecast/internal/forecast"

// Column order must match forecast.Profile: ground truth, year, month, day,
// hour, then the target's raw columns.
var windowQueries = map[forecast.Target]string{
	forecast.Brightness: `
		SELECT brightness, year, month, day, hour,
		       rad1h, rrad1, sun_alt, sun_az, sun_d1, cloud_cover
		FROM (
			SELECT brightness, year, month, day, hour,
			       rad1h, rrad1, sun_alt, sun_az, sun_d1, cloud_cover
			FROM solar_energy_fc
			ORDER BY year DESC, month DESC, day DESC, hour DESC
			LIMIT $1
		) AS recent
		ORDER BY year, month, day, hour
	`,
	// Brightness falls back to the brightness forecast saved by the
	// brightness run; temp falls back to the weather service forecast.
	forecast.Energy: `
		SELECT energy_hour, year, month, day, hour,
		       brightness, sun_alt, sun_az, temp
		FROM (
			SELECT energy_hour, year, month, day, hour,
			       CASE WHEN brightness = 0 THEN brightness_fc ELSE brightness END AS brightness,
			       sun_alt, sun_az,
			       COALESCE(temp, ttt) AS temp
			FROM solar_energy_fc
			ORDER BY year DESC, month DESC, day DESC, hour DESC
			LIMIT $1
		) AS recent
		ORDER BY year, month, day, hour
	`,
}

// knownProcedures guards the CALL statement, which cannot bind the
// procedure name as a parameter
var knownProcedures = map[string]bool{
	forecast.Brightness.Profile().Procedure: true,
	forecast.Energy.Profile().Procedure:     true,
}
