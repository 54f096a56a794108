// Package ui styles terminal output for the jukebox CLI with lipgloss.
//
// [Palette] holds named styles (title, ok, err, warn, help). [Styles] is the shared default; commands use it to
// print status lines such as [Palette.CredentialStatus].
package ui
