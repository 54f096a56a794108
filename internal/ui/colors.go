package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Styles is the default palette used by the CLI.
var Styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Painter colors text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) OK(s string) string { return p.ok.Render("✓ " + s) }
func (p *Palette) Err(s string) string { return p.err.Render("✗ " + s) }
func (p *Palette) Warn(s string) string { return p.warn.Render("! " + s) }
func (p *Palette) Help(s string) string { return p.help.Render(s) }

// On sets the background color of s.
func (p *Palette) On(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Background(c).Render(s)
}

// As sets the foreground color of s.
func (p *Palette) As(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

// CredentialStatus describes a stored credential for `auth status`.
//
// The line is green while the access token is valid, yellow once it has expired but can still be refreshed and
// red when a new login is needed.
func (p *Palette) CredentialStatus(expiresAt time.Time, canRefresh bool, now time.Time) string {
	remaining := expiresAt.Sub(now).Truncate(time.Second)
	switch {
	case remaining > 0:
		return p.OK(fmt.Sprintf("access token valid for %s", remaining))
	case canRefresh:
		return p.Warn(fmt.Sprintf("access token expired %s ago, will refresh on next use", -remaining))
	default:
		return p.Err("access token expired and no refresh token stored; log in again")
	}
}

var _ Painter = (*Palette)(nil)
