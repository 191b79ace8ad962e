// Package web embeds the invoice preview templates and their stylesheet.
package web

import "embed"

// TemplatesFS embeds HTML templates for server-side rendering.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets served under /static.
//
//go:embed static/*
var StaticFS embed.FS
