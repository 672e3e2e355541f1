package pubcontent

import "embed"

// EmbeddedAssets contains files shipped with the module:
// frontmatter.schema.json for strict linting and site.css for generated pages.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

const (
	schemaAsset = "embedded/frontmatter.schema.json"
	cssAsset    = "embedded/site.css"
)
