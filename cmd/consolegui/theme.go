package main

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

type appTheme struct{ mode string; compact bool }

func makeTheme(mode string, compact bool) fyne.Theme { return &appTheme{mode: mode, compact: compact} }

func (t *appTheme) dark(v fyne.ThemeVariant) bool {
	return t.mode == "dark" || (t.mode != "light" && v == theme.VariantDark)
}

func (t *appTheme) base() fyne.Theme {
	if t.mode == "light" { return theme.LightTheme() }
	return theme.DarkTheme()
}

func (t *appTheme) Color(n fyne.ThemeColorName, v fyne.ThemeVariant) color.Color {
	isDark := t.dark(v)

	switch n {
	case theme.ColorNameForeground:
		if isDark {
			return color.NRGBA{255, 255, 255, 255}
		}
		return color.NRGBA{0, 0, 0, 255}

	case theme.ColorNamePlaceHolder, theme.ColorNameDisabled:
		if isDark {
			return color.NRGBA{200, 200, 200, 255}
		}
		return color.NRGBA{90, 90, 90, 255}

	// pending edits are highlighted with the warning colour
	case theme.ColorNameWarning:
		return color.NRGBA{255, 176, 32, 255}
	}

	if isDark {
		return theme.DarkTheme().Color(n, v)
	}
	return theme.LightTheme().Color(n, v)
}

func (t *appTheme) Font(style fyne.TextStyle) fyne.Resource { return t.base().Font(style) }

func (t *appTheme) Icon(n fyne.ThemeIconName) fyne.Resource { return t.base().Icon(n) }

func (t *appTheme) Size(n fyne.ThemeSizeName) float32 {
	base := t.base().Size(n)
	if t.compact {
		switch n { case theme.SizeNameText: return base * 0.95; case theme.SizeNamePadding: return base * 0.85 }
	} else {
		switch n { case theme.SizeNameText: return base * 1.05; case theme.SizeNamePadding: return base * 1.10 }
	}
	return base
}
