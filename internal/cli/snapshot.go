package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/canopy/pkg/ports"
)

// ErrNoSnapshotStore is returned by the snapshot commands when redis is not configured.
var ErrNoSnapshotStore = errors.New("no snapshot store configured (set redis.addr or --redis)")

// SnapshotOptions selects the store the snapshot commands work on.
type SnapshotOptions struct {
	ConfigPath string
	// RedisAddr overrides redis.addr when set.
	RedisAddr string
}

// snapshotStore is the redis store behind the snapshot commands, with the configured
// encryption so that inspect shows plain models.
type snapshotStore struct {
	ports.SnapshotStore
	close func() error
}

func (s snapshotStore) Close() error { return s.close() }

func openSnapshotStore(ctx context.Context, opts SnapshotOptions) (snapshotStore, error) {
	cfg, err := loadConfig(opts.ConfigPath, "", "")
	if err != nil {
		return snapshotStore{}, err
	}
	if opts.RedisAddr != "" {
		cfg.Redis.Addr = opts.RedisAddr
	}
	if cfg.Redis.Addr == "" {
		return snapshotStore{}, ErrNoSnapshotStore
	}
	rs, err := openRedis(ctx, cfg.Redis)
	if err != nil {
		return snapshotStore{}, err
	}
	// Masking only applies on Save, which these commands never do.
	cfg.Redis.MaskKeys = nil
	store, err := protectStore(rs, cfg.Redis)
	if err != nil {
		_ = rs.Close()
		return snapshotStore{}, err
	}
	return snapshotStore{SnapshotStore: store, close: rs.Close}, nil
}

// ListSnapshots prints the IDs of all stored widget snapshots.
func ListSnapshots(ctx context.Context, opts SnapshotOptions, out io.Writer) error {
	store, err := openSnapshotStore(ctx, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No stored snapshots found.")
		return nil
	}
	fmt.Fprintln(out, "Stored snapshots:")
	for _, id := range ids {
		fmt.Fprintln(out, "- "+id)
	}
	return nil
}

// InspectSnapshot prints the stored snapshot of widgetID as indented JSON.
func InspectSnapshot(ctx context.Context, opts SnapshotOptions, widgetID string, out io.Writer) error {
	store, err := openSnapshotStore(ctx, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Load(ctx, widgetID)
	if err != nil {
		return fmt.Errorf("load snapshot %q: %w", widgetID, err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// RemoveSnapshot deletes the stored snapshot of widgetID.
func RemoveSnapshot(ctx context.Context, opts SnapshotOptions, widgetID string, out io.Writer) error {
	store, err := openSnapshotStore(ctx, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(ctx, widgetID); err != nil {
		return fmt.Errorf("remove snapshot %q: %w", widgetID, err)
	}
	fmt.Fprintf(out, "Snapshot %q removed.\n", widgetID)
	return nil
}
