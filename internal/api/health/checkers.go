package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Pinger is implemented by storage backends that can verify their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseChecker pings the relational store.
type DatabaseChecker struct {
	pinger Pinger
}

// NewDatabaseChecker creates a checker for p.
func NewDatabaseChecker(p Pinger) *DatabaseChecker {
	return &DatabaseChecker{pinger: p}
}

func (c *DatabaseChecker) Name() string { return "database" }

func (c *DatabaseChecker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return errors.New("database not initialized")
	}
	return c.pinger.Ping(ctx)
}

// UploadsChecker verifies the upload root exists and accepts new files.
type UploadsChecker struct {
	root string
}

// NewUploadsChecker creates a checker for the upload root directory.
func NewUploadsChecker(root string) *UploadsChecker {
	return &UploadsChecker{root: root}
}

func (c *UploadsChecker) Name() string { return "uploads" }

func (c *UploadsChecker) Check(ctx context.Context) error {
	info, err := os.Stat(c.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", c.root)
	}
	f, err := os.CreateTemp(c.root, ".health-*")
	if err != nil {
		return fmt.Errorf("upload root not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(filepath.Clean(name))
}
