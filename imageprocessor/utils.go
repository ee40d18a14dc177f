package imageprocessor

import "os/exec"

// hasExiftool checks if the exiftool binary is available on the system
func hasExiftool() bool {
	_, err := exec.LookPath("exiftool")
	return err == nil
}
