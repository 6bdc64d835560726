//go:build !unix

package service

import (
	"errors"

	"github.com/vibecreator/mixpost-api/internal/transfer"
)

func diskUsage(string) (*transfer.DiskUsage, error) {
	return nil, errors.New("disk usage is not supported on this platform")
}
