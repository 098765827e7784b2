// Package domain models earthquake catalog data and the forecast and
// validation products derived from it.
//
// # Data Source
//
// Catalog rows originate from the USGS FDSN event service
// (https://earthquake.usgs.gov/fdsnws/event/1/). An upstream downloader pages
// the service year by year and flattens each GeoJSON feature into a tabular
// row with the columns id, time, mag, depth, lon, lat, place, type. This
// package consumes those rows as [CatalogRecord] values; it never performs
// network or file I/O itself.
//
// # Catalog Conventions
//
// Time format:
//
//	ISO-8601 as written by Python's isoformat(): "2023-01-18T14:37:21.518000".
//	Rows without a zone designator are UTC. RFC 3339 rows with an explicit
//	offset ("2023-01-18T14:37:21Z", "...+03:30") are converted to UTC.
//	A space may replace the "T" separator, and bare dates are accepted.
//
// Coordinates:
//
//	GeoJSON order is [lon, lat, depth]; the downloader splits them into
//	separate columns. Latitude must lie in [-90, 90], longitude in [-180, 180].
//	Depth is kilometers below sea level and may be missing.
//
// Magnitude:
//
//	The preferred magnitude of the event, of mixed type (Mw, mb, ML).
//	The forecast model treats all magnitude types as interchangeable.
//
// Dropped rows:
//
//	A row missing time, mag, lat or lon, or carrying an unparseable timestamp
//	or out-of-range coordinate, is a data error. [BuildCatalog] drops it and
//	reports the count; a data error never aborts catalog construction.
//
// # Forecast Products
//
// A [ForecastTable] holds one [ForecastCell] per (window, magnitude threshold)
// pair, ordered window-major. Window labels follow the USGS aftershock forecast
// wording ("1 Day", "1 Week", "1 Month"); magnitude labels read "M ≥ 5.0".
// Probabilities are fractions; Percent is the same value times 100 rounded to
// one decimal place.
package domain
