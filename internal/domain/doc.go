// Package domain models hazard alerts, the zip-code directory, and the
// target records produced by correlating the two.
//
// # Data Sources
//
// Hazard features originate from the National Weather Service (NWS) active
// alerts API at https://api.weather.gov/alerts/active, which returns a GeoJSON
// FeatureCollection. Other adapters (state GeoJSON layers, respiratory illness
// trackers) are expected to produce the same shape so that every hazard type
// flows through one matching path.
//
// # NWS Alert Conventions
//
// Properties consumed per feature:
//
//	id            "urn:oid:2.49.0.1.840.0.…" unique alert identifier
//	event         "Winter Storm Warning"
//	areaDesc      "Kings, CA; Tulare, CA" or "Los Angeles County, CA"
//	severity      Unknown | Minor | Moderate | Severe | Extreme
//	sent/expires  RFC 3339 timestamps with zone offset
//	affectedZones ["https://api.weather.gov/zones/forecast/CAZ041", …]
//
// Geometry is optional. Zone-based alerts usually carry a null geometry and
// list their forecast zones instead; the zone polygons are fetched on demand
// and backfilled onto the feature (see [HazardFeature.BackfillZones]).
//
// Inline geometry may be a Polygon or MultiPolygon. Both are normalized to a
// list of constituent polygons so that matching can test each one
// independently.
//
// # Zip Directory Conventions
//
// The zip directory is loaded from the USPS/HUD style reference table:
//
//	STD_ZIP5             five-digit zip, zero-padded ("00501")
//	LATITUDE, LONGITUDE  WGS84 decimal degrees
//	USPS_ZIP_PREF_CITY   preferred city name
//	USPS_ZIP_PREF_STATE  two-letter state code
//	USPS_ZIP_COUNTY_NAME county name, added by an enrichment step (optional)
//
// County and state drive the text fallback used when an alert has no usable
// geometry: "{COUNTY}, {ST}" is searched for in the upper-cased areaDesc.
package domain
