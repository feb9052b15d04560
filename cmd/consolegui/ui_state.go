package main

import (
	"context"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/ligun0805/crowdsale-console/internal/app"
	"github.com/ligun0805/crowdsale-console/internal/crowdsale"
)

// Shared UI state.
var (
	runCtx    context.Context
	runCancel context.CancelFunc

	consoleMu sync.Mutex
	console   *app.App
	shownOnce sync.Once

	mainWin fyne.Window
	logWin  fyne.Window

	logMu     sync.Mutex
	logLines  []string
	logBox    *widget.Entry
	logScroll *container.Scroll

	accountLbl *widget.Label
	statusLbl  *widget.Label
	pendingLbl *widget.Label
	tokenBox   *fyne.Container
	saveBtn    *widget.Button

	tiersTable *widget.Table
	tierRows   []crowdsale.Tier
)

func setConsole(a *app.App) {
	consoleMu.Lock()
	console = a
	consoleMu.Unlock()
}

func currentConsole() *app.App {
	consoleMu.Lock()
	defer consoleMu.Unlock()
	return console
}
