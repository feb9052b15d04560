package main

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/ligun0805/crowdsale-console/internal/crowdsale"
	"github.com/ligun0805/crowdsale-console/internal/store"
)

// showTierEditor opens the editor for tier i in a dialog.
func showTierEditor(i int) {
	a := currentConsole()
	if a == nil { return }
	d := dialog.NewCustom(fmt.Sprintf("Edit tier %d", i), "Close", buildEditForm(a.Console.Store(), i), mainWin)
	d.Resize(fyne.NewSize(760, 560))
	d.Show()
}

// buildEditForm edits tier i of st in place and keeps the session file in sync.
func buildEditForm(st *store.Console, i int) fyne.CanvasObject {
	t, err := st.Tier(i)
	if err != nil { return widget.NewLabel(err.Error()) }
	dutch := st.Strategy() == crowdsale.DutchAuction

	startE := widget.NewEntry(); startE.SetText(t.StartTime); startE.SetPlaceHolder(crowdsale.DisplayLayout)
	endE   := widget.NewEntry(); endE.SetText(t.EndTime);     endE.SetPlaceHolder(crowdsale.DisplayLayout)
	if !dutch { startE.Disable() }

	applyTimes := widget.NewButtonWithIcon("Apply dates", theme.ConfirmIcon(), func(){
		start := strings.TrimSpace(startE.Text)
		end   := strings.TrimSpace(endE.Text)
		if err := setWindow(st, i, start, end, dutch); err != nil {
			dialog.ShowError(err, mainWin)
			return
		}
		changed()
	})

	var (
		entries []crowdsale.WhitelistEntry
		list    *widget.List
	)
	reloadList := func(){
		cur, err := st.Tier(i)
		if err != nil { return }
		entries = cur.Whitelist
		list.Refresh()
	}
	list = widget.NewList(
		func() int { return len(entries) },
		func() fyne.CanvasObject {
			lbl := widget.NewLabel("")
			lbl.TextStyle = fyne.TextStyle{Monospace: true}
			del := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
			return container.NewBorder(nil, nil, nil, del, lbl)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= len(entries) { return }
			e := entries[id]
			box := obj.(*fyne.Container)
			lbl := box.Objects[0].(*widget.Label)
			del := box.Objects[1].(*widget.Button)
			state := "stored"
			if !e.Stored { state = "pending" }
			lbl.SetText(fmt.Sprintf("%s  min %s  max %s  [%s]", e.Addr, e.Min, e.Max, state))
			if e.Stored {
				del.Disable()
				del.OnTapped = nil
				return
			}
			del.Enable()
			addr := e.Addr
			del.OnTapped = func(){
				if err := st.RemoveWhitelistEntry(i, addr); err != nil {
					dialog.ShowError(err, mainWin)
					return
				}
				reloadList()
				changed()
			}
		},
	)

	addrE := widget.NewEntry(); addrE.SetPlaceHolder("0x…")
	minE  := widget.NewEntry(); minE.SetPlaceHolder("min tokens")
	maxE  := widget.NewEntry(); maxE.SetPlaceHolder("max tokens")
	addBtn := widget.NewButtonWithIcon("Add", theme.ContentAddIcon(), func(){
		e := crowdsale.WhitelistEntry{
			Addr: strings.TrimSpace(addrE.Text),
			Min:  strings.TrimSpace(minE.Text),
			Max:  strings.TrimSpace(maxE.Text),
		}
		if err := st.AddWhitelistEntry(i, e); err != nil {
			dialog.ShowError(err, mainWin)
			return
		}
		addrE.SetText(""); minE.SetText(""); maxE.SetText("")
		reloadList()
		changed()
	})
	reloadList()

	timesForm := widget.NewForm(
		widget.NewFormItem("Start", startE),
		widget.NewFormItem("End", endE),
		widget.NewFormItem("", applyTimes),
	)
	addRow := container.NewBorder(nil, nil, nil, addBtn,
		container.NewGridWithColumns(3, addrE, minE, maxE))

	wlBody := fyne.CanvasObject(widget.NewLabel("Whitelist disabled for this tier"))
	if t.WhitelistEnabled == "yes" {
		scroll := container.NewVScroll(list)
		scroll.SetMinSize(fyne.NewSize(700, 220))
		wlBody = container.NewBorder(nil, addRow, nil, nil, scroll)
	}
	return container.NewPadded(container.NewBorder(
		widget.NewCard("Dates", fmt.Sprintf("times in %s", st.Location()), timesForm),
		nil, nil, nil,
		widget.NewCard("Whitelist", "", wlBody),
	))
}

// setWindow applies new start/end values. When both move, the order is
// picked so the window stays valid in between; on failure the tier keeps
// its previous dates.
func setWindow(st *store.Console, i int, start, end string, dutch bool) error {
	cur, err := st.Tier(i)
	if err != nil { return err }
	setStart := dutch && start != cur.StartTime
	setEnd := end != cur.EndTime
	switch {
	case setStart && setEnd:
		if err := st.SetEndTime(i, end); err == nil {
			if err := st.SetStartTime(i, start); err != nil {
				_ = st.SetEndTime(i, cur.EndTime)
				return err
			}
			return nil
		}
		if err := st.SetStartTime(i, start); err != nil {
			return err
		}
		if err := st.SetEndTime(i, end); err != nil {
			_ = st.SetStartTime(i, cur.StartTime)
			return err
		}
		return nil
	case setStart:
		return st.SetStartTime(i, start)
	case setEnd:
		return st.SetEndTime(i, end)
	}
	return nil
}

// changed persists the session and refreshes the main view after an edit.
func changed() {
	a := currentConsole()
	if a == nil { return }
	if err := a.Console.Store().SaveSession(a.Settings.SessionFile); err != nil {
		appendLogLine("session: " + err.Error())
	}
	refreshConsoleView()
}
