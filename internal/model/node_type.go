package model

import "strings"

// NodeType is an immutable catalog entry describing a deployable NIM
// workload: a display name plus the NIM container image that serves it.
type NodeType struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// DefaultCatalog returns the built-in NIM node catalog. Loaded once at
// process start; entries are never mutated afterwards.
func DefaultCatalog() []NodeType {
	return []NodeType{
		{Name: "FLUX Dev", Image: "nvcr.io/nim/nim_flux_dev"},
		{Name: "FLUX Canny", Image: "nvcr.io/nim/nim_flux_canny"},
		{Name: "FLUX Depth", Image: "nvcr.io/nim/nim_flux_depth"},
		{Name: "FLUX Kontext", Image: "nvcr.io/nim/nim_flux_kontext"},
		{Name: "SDXL", Image: "nvcr.io/nim/nim_sdxl"},
	}
}

// CatalogLookup finds a node type by name, falling back to the conventional
// nvcr.io image path for names outside the built-in catalog.
func CatalogLookup(catalog []NodeType, name string) NodeType {
	for _, nt := range catalog {
		if nt.Name == name {
			return nt
		}
	}
	return NodeType{
		Name:  name,
		Image: "nvcr.io/nim/nim_" + strings.ReplaceAll(strings.ToLower(name), " ", "_"),
	}
}

// SanitizeNodeName lowercases a node type name and replaces spaces and
// underscores with dashes, for use in instance and service names.
func SanitizeNodeName(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	return s
}
