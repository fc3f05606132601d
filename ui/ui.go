// Package ui is a desktop console for one cover node
package ui

import (
	"context"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/calvinmclean/covernode"
	"github.com/calvinmclean/covernode/controller"
)

// maxLogLines bounds the console log
const maxLogLines = 200

type motorRow struct {
	position *widget.Label
	slider   *widget.Slider
}

func createMotorRow(m covernode.MotorID, c *controllerWrapper) (*motorRow, *fyne.Container) {
	row := &motorRow{
		position: widget.NewLabel("--"),
	}

	targetLabel := widget.NewLabel("0%")
	row.slider = widget.NewSlider(0, 100)
	row.slider.Step = 1
	row.slider.OnChanged = func(value float64) {
		targetLabel.SetText(fmt.Sprintf("%.0f%%", value))
	}
	row.slider.OnChangeEnded = func(value float64) {
		c.MoveTo(m, value)
	}

	content := container.NewVBox(
		container.NewGridWithColumns(3,
			widget.NewLabel(fmt.Sprintf("Motor %d", m)),
			row.position,
			targetLabel,
		),
		row.slider,
		container.NewGridWithColumns(4,
			widget.NewButton("Open", func() { c.Open(m) }),
			widget.NewButton("Close", func() { c.Close(m) }),
			widget.NewButton("Stop", c.Stop),
			widget.NewButton("Calibrate", func() { c.Calibrate(m) }),
		),
	)
	return row, content
}

type consoleLog struct {
	label *widget.Label
	lines []string
}

func (l *consoleLog) add(now time.Time, line string) {
	l.lines = append(l.lines, now.Format("15:04:05")+" "+line)
	if len(l.lines) > maxLogLines {
		l.lines = l.lines[len(l.lines)-maxLogLines:]
	}

	text := ""
	for _, line := range l.lines {
		text += line + "\n"
	}
	l.label.SetText(text)
}

func createLogAccordion() (*consoleLog, *widget.Accordion) {
	log := &consoleLog{label: widget.NewLabel("")}
	logScroll := container.NewVScroll(log.label)
	logScroll.SetMinSize(fyne.NewSize(300, 120))

	return log, widget.NewAccordion(
		widget.NewAccordionItem("Log", logScroll),
	)
}

const appID = "com.github.calvinmclean.covernode"

// NodeUI is the console for the node at one address. Without a usable
// configuration it asks for one first.
type NodeUI struct {
	cfg    controller.Config
	client *controller.Client
}

func NewNodeUI(cfg controller.Config) *NodeUI {
	return &NodeUI{cfg: cfg}
}

// Run shows the console until the last window is closed or ctx is done
func (ui *NodeUI) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	application := app.NewWithID(appID)

	if validateConfig(ui.cfg) == nil {
		ui.showConsole(ctx, application)
	} else {
		cw := NewConfigWindow(application)
		cw.OnSubmit = func() {
			ui.showConsole(ctx, application)
		}
		cw.Show(&ui.cfg)
	}

	go func() {
		<-ctx.Done()
		fyne.Do(func() {
			application.Quit()
		})
	}()

	application.Run()

	if ui.client != nil {
		_ = ui.client.Close()
	}
}

func (ui *NodeUI) showConsole(ctx context.Context, application fyne.App) {
	addr, _ := ui.cfg.NodeAddress()
	window := application.NewWindow(fmt.Sprintf("Cover Node %d", addr))
	window.Resize(fyne.NewSize(420, 320))
	window.Show()

	client, err := controller.New(ui.cfg)
	if err != nil {
		showError(application, window, err)
		return
	}
	ui.client = client

	log, logAccordion := createLogAccordion()
	c := &controllerWrapper{
		client: client,
		addr:   addr,
		onSent: func(cmd covernode.Command, err error) {
			line := "sent " + cmd.String()
			if err != nil {
				line = fmt.Sprintf("failed to send %s: %v", cmd, err)
			}
			log.add(time.Now(), line)
		},
	}

	var rows [2]*motorRow
	var rowContent [2]fyne.CanvasObject
	for i, m := range covernode.Motors {
		rows[i], rowContent[i] = createMotorRow(m, c)
	}

	age := newHeartbeatAge()
	age.Go(ctx)
	versionLabel := widget.NewLabel("")

	state := &nodeState{addr: addr}
	go func() {
		err := client.Listen(ctx, func(r covernode.Reply) {
			now := time.Now()
			fyne.Do(func() {
				line := state.apply(r, now)
				if line != "" {
					log.add(now, line)
				}
				if !state.lastSeen.IsZero() {
					age.Set(state.lastSeen)
				}
				versionLabel.SetText(state.version)
				for i, m := range covernode.Motors {
					rows[i].position.SetText(state.position(m))
				}
			})
		})
		if err != nil {
			fyne.Do(func() { log.add(time.Now(), "stopped listening: "+err.Error()) })
		}
	}()

	content := container.NewVBox(
		container.NewHBox(
			container.NewPadded(age.text),
			layout.NewSpacer(),
			versionLabel,
		),
		rowContent[0],
		widget.NewSeparator(),
		rowContent[1],
		widget.NewButton("Stop All", func() {
			if err := client.SendCommand(covernode.BroadcastAddr, covernode.Command{Kind: covernode.CommandStop}); err != nil {
				log.add(time.Now(), "failed to send broadcast stop: "+err.Error())
			}
		}),
		logAccordion,
	)

	window.SetContent(content)
}
