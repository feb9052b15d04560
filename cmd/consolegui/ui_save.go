package main

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/ligun0805/crowdsale-console/internal/provider"
)

// confirmSave lists pending updates and submits them after confirmation.
func confirmSave() {
	a := currentConsole()
	if a == nil { return }
	updates, err := a.Console.PendingUpdates()
	if err != nil {
		dialog.ShowError(err, mainWin)
		return
	}
	if len(updates) == 0 {
		dialog.ShowInformation("Save", "No pending changes.", mainWin)
		return
	}
	account, err := a.Bridge.Account()
	if err != nil {
		if errors.Is(err, provider.ErrNoAccount) {
			err = fmt.Errorf("unlock your wallet first: %w", err)
		}
		dialog.ShowError(err, mainWin)
		return
	}
	body := widget.NewLabel(fmt.Sprintf("Send %d transaction(s) from %s?\n\n%s",
		len(updates), account.Hex(), describeUpdates(updates)))
	dialog.ShowCustomConfirm("Save changes", "Send", "Cancel", body, func(ok bool){
		if ok { go runSave() }
	}, mainWin)
}

func runSave() {
	a := currentConsole()
	if a == nil { return }
	saveBtn.Disable()
	prog := dialog.NewProgressInfinite("Saving", "Waiting for transactions to be mined…", mainWin)
	prog.Show()

	receipts, err := a.Console.Save(runCtx)
	prog.Hide()
	for _, r := range receipts {
		appendLogLine(fmt.Sprintf("mined %s in block %v", r.TxHash.Hex(), r.BlockNumber))
	}
	// what is still pending stays in the session for the next attempt
	if serr := a.Console.Store().SaveSession(a.Settings.SessionFile); serr != nil {
		appendLogLine("session: " + serr.Error())
	}
	refreshConsoleView()
	if err != nil {
		appendLogLine("save: " + err.Error())
		dialog.ShowError(fmt.Errorf("saved %d change(s), then: %w", len(receipts), err), mainWin)
		return
	}
	dialog.ShowInformation("Save", fmt.Sprintf("Saved %d change(s).", len(receipts)), mainWin)
}
