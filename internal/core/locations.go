package core

// ProjectLocation is static reference data for one cooperative site. The
// table is fixed; locations are never created or persisted with project
// data.
type ProjectLocation struct {
	ID          int    `json:"id"`
	District    string `json:"kecamatan"`
	Village     string `json:"desa"`
	Coordinates string `json:"coordinates,omitempty"`
}

// Locations is the fixed table of KDKMP construction sites in Majalengka.
var Locations = []ProjectLocation{
	{ID: 1, District: "MAJA", Village: "TEGALSARI"},
	{ID: 2, District: "ARGAPURA", Village: "SADASARI"},
	{ID: 3, District: "PALASAH", Village: "TARIKOLOT"},
	{ID: 4, District: "LIGUNG", Village: "MAJASARI"},
	{ID: 5, District: "LIGUNG", Village: "KEDUNGKENCANA"},
	{ID: 6, District: "LIGUNG", Village: "KODASARI"},
	{ID: 7, District: "LIGUNG", Village: "KEDUNGSARI"},
	{ID: 8, District: "LIGUNG", Village: "LIGUNG KIDUL"},
	{ID: 9, District: "LEUWIMUNDING", Village: "KARANGASEM"},
	{ID: 10, District: "LEUWIMUNDING", Village: "LEUWIKUJANG"},
	{ID: 11, District: "SINDANGWANGI", Village: "UJUNGBERUNG"},
	{ID: 12, District: "SINDANGWANGI", Village: "LENGKONGWETAN"},
	{ID: 13, District: "JATIWANGI", Village: "MEKARSARI"},
	{ID: 14, District: "SUMBERJAYA", Village: "PANCAKSUJI"},
	{ID: 15, District: "SUMBERJAYA", Village: "GELOK MULYA"},
	{ID: 16, District: "SUMBERJAYA", Village: "BANJARAN"},
	{ID: 17, District: "SUMBERJAYA", Village: "LOJIKOBONG"},
}

// LocationByID looks up a site in the fixed table.
func LocationByID(id int) (ProjectLocation, bool) {
	for _, loc := range Locations {
		if loc.ID == id {
			return loc, true
		}
	}
	return ProjectLocation{}, false
}
