package ui

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/calvinmclean/covernode/controller"
)

// ConfigWindow asks for the serial port and node address before the console opens
type ConfigWindow struct {
	app      fyne.App
	OnSubmit func()
}

func NewConfigWindow(app fyne.App) *ConfigWindow {
	return &ConfigWindow{
		app: app,
	}
}

func (cw *ConfigWindow) loadConfigFromPreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	if cfg.SerialPort == "" {
		cfg.SerialPort = prefs.StringWithFallback("serialPort", "")
	}
	if cfg.BaudRate == "" {
		cfg.BaudRate = prefs.StringWithFallback("baudRate", "9600")
	}
	if cfg.Address == "" {
		cfg.Address = prefs.StringWithFallback("nodeAddress", "1")
	}
}

func (cw *ConfigWindow) saveConfigToPreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	prefs.SetString("serialPort", cfg.SerialPort)
	prefs.SetString("baudRate", cfg.BaudRate)
	prefs.SetString("nodeAddress", cfg.Address)
}

// validateConfig reports the first field that cannot be used
func validateConfig(cfg controller.Config) error {
	if cfg.SerialPort == "" {
		return errors.New("select a serial port")
	}
	if _, err := cfg.NodeAddress(); err != nil {
		return err
	}
	if cfg.BaudRate == "" {
		return errors.New("enter a baud rate")
	}
	return nil
}

func (cw *ConfigWindow) Show(cfg *controller.Config) {
	window := cw.app.NewWindow("Cover Node - Configuration")
	window.Resize(fyne.NewSize(400, 200))
	window.SetCloseIntercept(func() {
		window.Close()
		cw.app.Quit()
	})
	window.Show()

	cw.loadConfigFromPreferences(cfg)

	serialPorts, err := controller.GetSerialPorts()
	if err != nil && !errors.Is(err, controller.ErrNoUSBSerial) {
		showError(cw.app, window, fmt.Errorf("error getting serial ports: %w", err))
		return
	}
	serialPorts = append(serialPorts, controller.SerialPortNone)

	serialEntry := widget.NewSelect(serialPorts, nil)
	if cfg.SerialPort == "" {
		cfg.SerialPort = serialPorts[0]
	}
	serialEntry.Bind(binding.BindString(&cfg.SerialPort))

	baudRateEntry := widget.NewEntry()
	baudRateEntry.Bind(binding.BindString(&cfg.BaudRate))

	addressEntry := widget.NewEntry()
	addressEntry.Bind(binding.BindString(&cfg.Address))

	status := widget.NewLabel("")

	submitButton := widget.NewButton("Connect", func() {
		cw.saveConfigToPreferences(cfg)
		cw.OnSubmit()
		window.Close()
	})

	validateForm := func() {
		if err := validateConfig(*cfg); err != nil {
			status.SetText(err.Error())
			submitButton.Disable()
			return
		}
		status.SetText("")
		submitButton.Enable()
	}

	serialEntry.OnChanged = func(_ string) { validateForm() }
	baudRateEntry.OnChanged = func(_ string) { validateForm() }
	addressEntry.OnChanged = func(_ string) { validateForm() }

	validateForm()

	form := container.NewVBox(
		widget.NewCard("Configuration", "", container.NewVBox(
			container.NewGridWithColumns(2,
				widget.NewLabel("Serial Port:"),
				serialEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Baud Rate:"),
				baudRateEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Node Address:"),
				addressEntry,
			),
		)),
		status,
		container.NewHBox(
			widget.NewButton("Cancel", func() {
				window.Close()
				cw.app.Quit()
			}),
			submitButton,
		),
	)

	window.SetContent(form)
}

func showError(app fyne.App, window fyne.Window, err error) {
	d := dialog.NewError(err, window)
	d.SetOnClosed(func() {
		app.Quit()
	})
	d.Show()
}
