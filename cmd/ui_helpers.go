package cmd

import (
	"fmt"
	"sync"
	"time"

	"tablewire/gateway/internal/protocol"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

var spinnerFrames = []string{"-", "\\", "|", "/"}

// startSpinner shows text behind a rotating frame in a pterm area until the
// returned function is called. The cursor is hidden while it runs.
func startSpinner(text string) func() {
	cursor.Hide()
	area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
	if err != nil {
		cursor.Show()
		return func() {}
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(120 * time.Millisecond)
		defer t.Stop()
		for i := 0; ; i++ {
			area.Update(fmt.Sprintf("%s %s", spinnerFrames[i%len(spinnerFrames)], text))
			select {
			case <-t.C:
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			_ = area.Stop()
			cursor.Show()
		})
	}
}

// tableRows lays out a column set as a header row followed by one row per
// record, the shape pterm tables expect.
func tableRows(data protocol.TableData) [][]string {
	rows := make([][]string, 0, data.RowCount+1)
	header := make([]string, len(data.Fields))
	for i, f := range data.Fields {
		header[i] = f.Name
	}
	rows = append(rows, header)
	for r := 0; r < data.RowCount; r++ {
		row := make([]string, len(data.Fields))
		for i, f := range data.Fields {
			if r < len(f.Values) {
				row[i] = f.Values[r]
			}
		}
		rows = append(rows, row)
	}
	return rows
}
