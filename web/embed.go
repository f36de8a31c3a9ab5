// Package web holds the page templates and static assets compiled into the
// server binary.
package web

import "embed"

// TemplatesFS holds one file per page plus layout.html, which defines the
// shared "header" and "footer" blocks.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS is served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
