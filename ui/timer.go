package ui

import (
	"context"
	"fmt"
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

// staleAfter is how long the console waits for a heartbeat before flagging the node
const staleAfter = 15 * time.Second

var staleColor = color.RGBA{R: 139, G: 0, B: 0, A: 255}

// heartbeatAge shows the time since the node was last heard from
type heartbeatAge struct {
	mtx      sync.Mutex
	lastSeen time.Time
	text     *canvas.Text
}

func newHeartbeatAge() *heartbeatAge {
	return &heartbeatAge{
		text: canvas.NewText("no heartbeat", nil),
	}
}

func (h *heartbeatAge) Set(seen time.Time) {
	h.mtx.Lock()
	h.lastSeen = seen
	h.mtx.Unlock()
}

func (h *heartbeatAge) label(now time.Time) (string, bool) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	if h.lastSeen.IsZero() {
		return "no heartbeat", true
	}
	age := now.Sub(h.lastSeen).Truncate(time.Second)
	return fmt.Sprintf("last heartbeat %s ago", age), age > staleAfter
}

// Go refreshes the text every second until ctx is done
func (h *heartbeatAge) Go(ctx context.Context) {
	ticker := time.NewTicker(time.Second)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				text, stale := h.label(now)
				fyne.Do(func() {
					h.text.Text = text
					h.text.Color = nil
					if stale {
						h.text.Color = staleColor
					}
					h.text.Refresh()
				})
			}
		}
	}()
}
