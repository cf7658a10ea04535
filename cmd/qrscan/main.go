// Command qrscan decodes QR codes from image files and encodes text into
// QR code images.
package main

import "github.com/ericlevine/qrcodec/cmd/qrscan/cmd"

func main() {
	cmd.Execute()
}
