// Package web embeds the browse page template and its static assets.
package web

import "embed"

// FS holds index.html and the static/ directory.
//
//go:embed index.html static
var FS embed.FS
