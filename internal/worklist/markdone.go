package worklist

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// markDoneLockTimeout bounds how long MarkDone waits for another ap process
// that is rewriting the same work list.
const markDoneLockTimeout = 5 * time.Second

// MarkDone re-reads the work list and sets done=1 on the first row that is
// not yet done and whose trimmed prompt equals the trimmed text.
//
// It returns false without error when no such row exists, for example because
// an earlier attempt already marked it. The file is only rewritten when
// something changed.
func MarkDone(path, text string) (bool, error) {
	lock, err := lockWorkList(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = lock.Unlock() }()

	t, err := readTable(path)
	if err != nil {
		return false, fmt.Errorf("re-reading %s: %w", path, err)
	}

	promptCol := t.column(ColumnPrompt)
	if promptCol < 0 {
		return false, fmt.Errorf("re-reading %s: %q column not found", path, ColumnPrompt)
	}

	doneCol, added := t.ensureColumn(ColumnDone, "0")
	want := strings.TrimSpace(text)

	found := false
	for i, row := range t.rows {
		if isDone(cell(row, doneCol)) {
			continue
		}
		if strings.TrimSpace(cell(row, promptCol)) == want {
			t.rows[i] = setCell(row, doneCol, "1")
			found = true
			break
		}
	}

	if !found && !added {
		return false, nil
	}
	if err := t.write(path); err != nil {
		return false, fmt.Errorf("rewriting %s: %w", path, err)
	}
	return found, nil
}

// lockWorkList takes an advisory lock next to the work list so that two ap
// runs do not interleave their read-modify-write cycles.
func lockWorkList(path string) (*flock.Flock, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), markDoneLockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquiring work list lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for work list lock on %s", path)
	}
	return lock, nil
}
