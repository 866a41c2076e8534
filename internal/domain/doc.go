// Package domain models National Weather Service (NWS) active alerts and the
// polygon geometries derived from them for regional display.
//
// # Data Source
//
// Alerts come from the NWS API active alerts endpoint
// (https://api.weather.gov/alerts/active), a GeoJSON FeatureCollection. Only
// three properties matter here: the event label, the geocode block, and the
// list of affected zone links.
//
// # NWS Data Conventions
//
// SAME geocodes:
//
//	Six digits, "PSSCCC". The leading digit is a county subdivision marker
//	("0" for the whole county); the remaining five are the state+county FIPS
//	code, e.g. "006037" → FIPS "06037" (Los Angeles County, CA).
//	The FIPS code is the join key into the county/zone reference shapefile.
//
// Affected zones:
//
//	Links of the form https://api.weather.gov/zones/<type>/<id>, e.g.
//	".../zones/forecast/CAZ041" or ".../zones/county/CAC037". The last two
//	path segments identify the zone for the /zones/<type>/<id> endpoint.
//
// Zone geometries:
//
//	GeoJSON Polygon, MultiPolygon, or GeometryCollection in lon/lat order.
//	Marine and large forecast zones frequently come back as collections,
//	and a noticeable share of zones have no geometry at all.
//
// # Colors
//
// Colors follow the AWIPS VTEC hazard table (matplotlib color names such as
// "red", "orange", "moccasin"). Two statement products are not in that table
// and use fixed colors: Special/Marine Weather Statement ("moccasin") and Rip
// Current Statement ("aqua").
package domain
