package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/ligun0805/crowdsale-console/internal/config"
)

// buildConsoleView lays out the token card, the tiers table and the save bar.
func buildConsoleView(a fyne.App) fyne.CanvasObject {
	accountLbl = widget.NewLabel("")
	accountLbl.TextStyle = fyne.TextStyle{Monospace: true}
	statusLbl = widget.NewLabel("")
	pendingLbl = widget.NewLabel("")
	tokenBox = container.NewVBox()

	tiersTable = widget.NewTable(
		func() (int, int) { return len(tierRows)+1, len(tierColumns) },
		func() fyne.CanvasObject {
			lbl := widget.NewLabel("")
			btn := widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), nil)
			return container.NewHBox(lbl, btn)
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			row, col := id.Row-1, id.Col
			box := obj.(*fyne.Container)
			lbl := box.Objects[0].(*widget.Label)
			btn := box.Objects[1].(*widget.Button)
			lbl.Hide(); btn.Hide()
			lbl.TextStyle = fyne.TextStyle{}
			lbl.Importance = widget.MediumImportance
			if id.Row == 0 {
				lbl.Show()
				lbl.TextStyle = fyne.TextStyle{Bold: true}
				lbl.SetText(tierColumns[col])
				return
			}
			if row < 0 || row >= len(tierRows) { return }
			t := tierRows[row]
			if col == editCol {
				btn.Show()
				btn.OnTapped = func(){ showTierEditor(row) }
				if t.Updatable { btn.Enable() } else { btn.Disable() }
				return
			}
			lbl.Show()
			if col == 2 || col == 3 { lbl.TextStyle = fyne.TextStyle{Monospace: true} }
			if col == 7 { lbl.Importance = widget.WarningImportance }
			lbl.SetText(tierCell(row, t, col))
		},
	)
	for col, w := range []float32{44, 180, 170, 170, 110, 160, 130, 80, 60} {
		tiersTable.SetColumnWidth(col, w)
	}

	saveBtn = widget.NewButtonWithIcon("SAVE", theme.DocumentSaveIcon(), func(){ confirmSave() })
	saveBtn.Importance = widget.HighImportance
	reloadBtn := widget.NewButtonWithIcon("Reload", theme.ViewRefreshIcon(), func(){ go reloadConsole() })
	logsBtn := widget.NewButtonWithIcon("Logs", theme.ListIcon(), func(){ ensureLogWindow(a).Show() })

	themeSelect := widget.NewSelect([]string{"Dark", "Light"}, func(s string){
		mode := "dark"; if s == "Light" { mode = "light" }
		a.Settings().SetTheme(makeTheme(mode, false))
	})
	themeSelect.SetSelected("Dark")

	header := container.NewBorder(nil, nil,
		container.NewHBox(widget.NewIcon(theme.AccountIcon()), accountLbl),
		container.NewHBox(themeSelect, logsBtn, reloadBtn),
		statusLbl,
	)
	tokenCard := widget.NewCard("Token", "", tokenBox)
	tiersCard := widget.NewCard("Tiers", "", container.NewScroll(tiersTable))
	bottom := container.NewBorder(nil, nil, nil, saveBtn, pendingLbl)

	refreshConsoleView()
	return container.NewBorder(container.NewVBox(header, tokenCard), bottom, nil, nil, tiersCard)
}

// refreshConsoleView copies the store state into the widgets.
func refreshConsoleView() {
	a := currentConsole()
	if a == nil || tiersTable == nil { return }
	st := a.Console.Store()

	if acct, ok := a.Bridge.SelectedAccount(); ok {
		accountLbl.SetText(acct.Hex())
	} else {
		accountLbl.SetText("no account")
	}
	status := fmt.Sprintf("%s · exec %s", st.Strategy(), config.MaskHex(st.ExecID()))
	if st.Finalized() {
		status += " · finalized"
	} else if !st.Updatable() {
		status += " · read-only"
	}
	statusLbl.SetText(status)

	tok := st.Token()
	objs := []fyne.CanvasObject{
		widget.NewLabel(fmt.Sprintf("%s (%s) · %d decimals · supply %s", tok.Name, tok.Ticker, tok.Decimals, tok.Supply)),
	}
	for _, r := range st.Reserved() {
		l := widget.NewLabel("reserved " + reservedText(r))
		l.TextStyle = fyne.TextStyle{Monospace: true}
		objs = append(objs, l)
	}
	tokenBox.Objects = objs
	tokenBox.Refresh()

	tierRows = st.Tiers()
	tiersTable.Refresh()

	n := 0
	if updates, err := a.Console.PendingUpdates(); err == nil {
		n = len(updates)
	} else {
		appendLogLine("pending: " + err.Error())
	}
	pendingLbl.SetText(pendingText(n))
	if n > 0 && !st.Finalized() { saveBtn.Enable() } else { saveBtn.Disable() }
}

// reloadConsole re-reads the crowdsale and re-applies unsaved session edits.
func reloadConsole() {
	a := currentConsole()
	if a == nil { return }
	if err := a.Console.Load(runCtx); err != nil {
		appendLogLine("reload: " + err.Error())
		dialog.ShowError(err, mainWin)
		return
	}
	restoreSession(a)
	refreshConsoleView()
}
