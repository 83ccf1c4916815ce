package hostsfile

import (
	"os"
	"runtime"
)

// DefaultPath returns the platform default location of the system hosts file.
func DefaultPath() string {
	if runtime.GOOS == "windows" {
		return `C:\Windows\System32\drivers\etc\hosts`
	}
	return "/etc/hosts"
}

// CheckWritable probes whether the hosts document can be opened for writing.
// A missing file counts as writable so a first run can create it; the probe
// exists to warn early about insufficient privileges, not to gate updates.
func CheckWritable(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return f.Close()
}
