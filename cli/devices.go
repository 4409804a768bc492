package cli

import (
	"fmt"
	"io"

	"github.com/avnlearn/manim-recorder/audio"
)

// ListDevices prints every capture device the backend can see.
func ListDevices(w io.Writer, actx audio.Context) error {
	devices, err := actx.Devices()
	if err != nil {
		return fmt.Errorf("list capture devices: %w", err)
	}
	if len(devices) == 0 {
		fmt.Fprintln(w, "no capture devices found")
		return nil
	}
	for i, d := range devices {
		tag := ""
		if audio.IsBluetooth(d.Name) {
			tag = " [BT]"
		}
		fmt.Fprintf(w, "%2d. %s%s\n", i+1, d.Name, tag)
	}
	return nil
}
