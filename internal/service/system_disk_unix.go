//go:build unix

package service

import (
	"golang.org/x/sys/unix"

	"github.com/vibecreator/mixpost-api/internal/transfer"
)

func diskUsage(path string) (*transfer.DiskUsage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return nil, err
	}
	bsize := uint64(st.Bsize)
	return newDiskUsage(st.Blocks*bsize, st.Bavail*bsize), nil
}
