// Package geo holds the geospatial plumbing behind the map pages: Swiss
// LV95/LV03 to WGS84 reprojection, repair of mis-decoded names, readers for
// GeoJSON, shapefiles, GeoPackages and CSV, point-in-region counting and the
// color scales used to render choropleths and heatmaps.
package geo
