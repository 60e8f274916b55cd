// Package branding centralizes user-facing product naming.
package branding

// AppName is the canonical product name used across services.
const AppName = "MangaCollab"
