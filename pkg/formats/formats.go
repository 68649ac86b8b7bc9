// Package formats provides parsers for Paper Mario: The Thousand-Year Door
// model, world and texture containers.
package formats

// Note: PMM (model) is implemented in pmm.go, index resolution in pmm_resolve.go
// Note: PMW (world) is implemented in pmw.go
// Note: TPL (textures) is implemented in tpl.go
