package platform

import "os"

// LinuxPlatform is the host platform implementation
type LinuxPlatform struct {
	*BasePlatform
}

func (lp *LinuxPlatform) RemoveAll(dir string) error {
	return os.RemoveAll(dir)
}

func (lp *LinuxPlatform) ReadDir(dir string) ([]os.DirEntry, error) {
	return os.ReadDir(dir)
}
