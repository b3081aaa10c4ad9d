package models

import "github.com/paulmach/orb"

// Antenna is a mobile network antenna site reprojected to WGS84.
type Antenna struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	PowerCode int     `json:"powerCode"`
	Power     string  `json:"power"`
	Techno    string  `json:"techno"`
	Type      string  `json:"type"`
}

// EVStation is a charging point (EVSE) with its merged live status.
type EVStation struct {
	EvseID string   `json:"evseId"`
	Name   string   `json:"name"`
	Lat    float64  `json:"lat"`
	Lon    float64  `json:"lon"`
	Plugs  []string `json:"plugs"`
	Status string   `json:"status"`
}

// Region is an administrative area (Kanton, Bezirk, Gemeinde) with its
// population figures. Area is in hectares; Density is population per area
// scaled by 1000 (DICHTE).
type Region struct {
	Name       string
	Population float64
	Area       float64
	Density    float64
	Geometry   orb.Geometry
}

// Turbine is a wind energy installation.
type Turbine struct {
	Lat                float64 `json:"lat"`
	Lon                float64 `json:"lon"`
	Manufacturer       string  `json:"manufacturer"`
	Model              string  `json:"model"`
	RatedPower         int     `json:"ratedPower"`
	Diameter           int     `json:"diameter"`
	YearOfConstruction string  `json:"yearOfConstruction"`
}

// POI is a point of interest from OpenStreetMap or a tourism API.
type POI struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Link string  `json:"link,omitempty"`
}

// LandscapeArea is one polygon of the Swiss landscape typology.
type LandscapeArea struct {
	Object   string
	TypeName string
	Region   string
	TypeNr   int
	Geometry orb.Geometry
}
