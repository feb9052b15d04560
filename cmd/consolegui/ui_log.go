package main

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const maxLogLines = 2000

// ensureLogWindow creates or returns the log window.
func ensureLogWindow(a fyne.App) fyne.Window {
	if logWin != nil { return logWin }
	logWin = a.NewWindow("Logs")
	logWin.SetOnClosed(func(){
		logMu.Lock()
		logWin, logBox, logScroll = nil, nil, nil
		logMu.Unlock()
	})
	exportBtn := widget.NewButtonWithIcon("Export Telemetry JSON", theme.DocumentSaveIcon(), func(){
		saveTelemetryJSON()
	})
	top := container.NewBorder(nil, nil, nil, exportBtn, widget.NewLabel("Console activity"))
	bg := canvas.NewLinearGradient(color.NRGBA{12,16,24,255}, color.NRGBA{20,28,40,255}, 90)

	box := widget.NewMultiLineEntry()
	box.Disable()
	box.Wrapping = fyne.TextWrapWord
	scroll := container.NewVScroll(box)
	scroll.SetMinSize(fyne.NewSize(800, 180))

	logMu.Lock()
	logBox, logScroll = box, scroll
	box.SetText(strings.Join(logLines, "\n"))
	logMu.Unlock()

	logWin.SetContent(container.NewBorder(top, nil, nil, nil, container.NewStack(bg, scroll)))
	logWin.Resize(fyne.NewSize(1000, 700))
	return logWin
}

// appendLogLine adds a timestamped line to the log buffer and, when the
// log window is open, to its view.
func appendLogLine(s string) {
	logMu.Lock()
	defer logMu.Unlock()
	logLines = append(logLines, time.Now().Format("15:04:05 ")+s)
	if len(logLines) > maxLogLines {
		logLines = logLines[len(logLines)-maxLogLines:]
	}
	if logBox == nil { return }
	logBox.SetText(strings.Join(logLines, "\n"))
	if logScroll != nil { logScroll.ScrollToBottom() }
}

// saveTelemetryJSON exports the session telemetry to TELEMETRY_DIR.
func saveTelemetryJSON() {
	a := currentConsole()
	if a == nil {
		fyne.CurrentApp().SendNotification(&fyne.Notification{Title: "Telemetry", Content: "console not connected"})
		return
	}
	path, err := a.Telemetry.Export(a.Settings.TelemetryDir)
	if err != nil {
		fyne.CurrentApp().SendNotification(&fyne.Notification{Title: "Save error", Content: fmt.Sprintf("%v", err)})
		return
	}
	appendLogLine("telemetry written to " + path)
	fyne.CurrentApp().SendNotification(&fyne.Notification{Title: "Saved", Content: path})
}
