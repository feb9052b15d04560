package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/ligun0805/crowdsale-console/internal/app"
	"github.com/ligun0805/crowdsale-console/internal/config"
	"github.com/ligun0805/crowdsale-console/internal/provider"
)

func main() {
	hideConsoleWindow()

	config.LoadEnvFiles()
	settings := config.Load()
	log, err := app.NewLogger(settings.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func(){ _ = log.Sync() }()

	a := fyneapp.New()
	a.Settings().SetTheme(makeTheme("dark", false))

	runCtx, runCancel = context.WithCancel(context.Background())
	defer runCancel()

	mainWin = a.NewWindow("Crowdsale Console")
	mainWin.SetOnClosed(func(){
		runCancel()
		if logWin != nil { logWin.Close() }
		if c := currentConsole(); c != nil { c.Close() }
	})
	mainWin.Resize(fyne.NewSize(1180, 760))
	mainWin.SetContent(loadingView("Looking for a wallet…"))

	if strings.EqualFold(settings.WalletMode, "key") && strings.TrimSpace(settings.PrivateKeyHex) == "" {
		mainWin.SetContent(unlockView(func(pk string){
			settings.PrivateKeyHex = pk
			mainWin.SetContent(loadingView("Looking for a wallet…"))
			go start(a, settings, log)
		}))
	} else {
		go start(a, settings, log)
	}
	mainWin.ShowAndRun()
}

// start wires the console; the bridge decides what is rendered.
func start(a fyne.App, settings config.Settings, log *zap.SugaredLogger) {
	logf := func(format string, args ...any) {
		log.Infof(format, args...)
		appendLogLine(fmt.Sprintf(format, args...))
	}
	opened, err := app.Open(runCtx, settings, app.Options{
		Logf: logf,
		OnStateChange: func(s provider.State) {
			logf("provider %s", s)
			switch s {
			case provider.StateReady:
				go showConsole(a)
			case provider.StateUnavailable:
				mainWin.SetContent(unavailableView())
			}
		},
		OnChangeAccount: func(_ *app.App, next common.Address) {
			logf("account switched to %s, reloading", next.Hex())
			reloadConsole()
		},
	})
	if err != nil {
		log.Errorf("open: %v", err)
		mainWin.SetContent(errorView(err))
		return
	}
	setConsole(opened)
	if opened.Bridge.State() == provider.StateReady {
		go showConsole(a)
	}
}

// showConsole loads the crowdsale and replaces the loader with the console.
func showConsole(a fyne.App) {
	c := currentConsole()
	if c == nil { return }
	shownOnce.Do(func(){ loadConsole(a, c) })
}

func loadConsole(a fyne.App, c *app.App) {
	mainWin.SetContent(loadingView("Loading crowdsale…"))
	if err := c.Console.Load(runCtx); err != nil {
		appendLogLine("load: " + err.Error())
		mainWin.SetContent(errorView(err))
		return
	}
	restoreSession(c)
	mainWin.SetContent(buildConsoleView(a))
}

func restoreSession(c *app.App) {
	n, err := c.Console.Store().LoadSession(c.Settings.SessionFile)
	if err != nil {
		appendLogLine("session: " + err.Error())
	}
	if n > 0 {
		appendLogLine(fmt.Sprintf("restored unsaved edits for %d tier(s)", n))
	}
}

func loadingView(msg string) fyne.CanvasObject {
	return container.NewCenter(container.NewVBox(
		widget.NewLabelWithStyle(msg, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewProgressBarInfinite(),
	))
}

func unavailableView() fyne.CanvasObject {
	msg := widget.NewLabel("No wallet provider was found.\n\n" +
		"Set RPC_URL to a node or wallet endpoint that exposes eth_accounts,\n" +
		"or set WALLET_MODE=key and PRIVATE_KEY to sign locally, then restart.")
	msg.Alignment = fyne.TextAlignCenter
	return container.NewCenter(container.NewVBox(
		widget.NewIcon(theme.WarningIcon()),
		widget.NewLabelWithStyle("Wallet unavailable", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		msg,
	))
}

func errorView(err error) fyne.CanvasObject {
	msg := widget.NewLabel(err.Error())
	msg.Wrapping = fyne.TextWrapWord
	return container.NewCenter(container.NewVBox(
		widget.NewIcon(theme.ErrorIcon()),
		widget.NewLabelWithStyle("Console failed to start", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		msg,
	))
}

func unlockView(onUnlock func(pk string)) fyne.CanvasObject {
	pkEntry := widget.NewPasswordEntry()
	pkEntry.SetPlaceHolder("0x…")
	form := widget.NewForm(widget.NewFormItem("Private key", pkEntry))
	form.SubmitText = "Unlock"
	form.OnSubmit = func(){
		pk := strings.TrimSpace(pkEntry.Text)
		if pk == "" { return }
		onUnlock(pk)
	}
	return container.NewCenter(widget.NewCard("Signer", "WALLET_MODE=key without PRIVATE_KEY", form))
}
