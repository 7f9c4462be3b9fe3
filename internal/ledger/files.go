package ledger

import (
	"fmt"

	"drive-go/internal/model"
)

// AddFile registers locator in owner's catalog. The new file is appended
// after the owner's existing files.
func (l *Ledger) AddFile(owner model.Account, locator, displayName string) (model.File, error) {
	ev, err := l.mutate(model.Event{
		Kind:        model.EventAddFile,
		Actor:       owner,
		Locator:     locator,
		DisplayName: displayName,
	})
	if err != nil {
		return model.File{}, err
	}
	return model.File{
		Owner:       owner,
		Locator:     locator,
		DisplayName: displayName,
		CreatedAt:   ev.OccurredAt,
	}, nil
}

// DeleteFile removes the file and every approval that referenced it.
func (l *Ledger) DeleteFile(owner model.Account, locator string) error {
	_, err := l.mutate(model.Event{
		Kind:    model.EventDeleteFile,
		Actor:   owner,
		Locator: locator,
	})
	return err
}

// GetAllFiles returns owner's files in insertion order.
func (l *Ledger) GetAllFiles(owner model.Account) []model.File {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.File, len(l.files[owner]))
	copy(out, l.files[owner])
	return out
}

// FileName returns the display name owner gave locator.
func (l *Ledger) FileName(owner model.Account, locator string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	f, ok := l.lookupFile(owner, locator)
	if !ok {
		return "", fmt.Errorf("%s/%s: %w", owner, locator, ErrFileNotFound)
	}
	return f.DisplayName, nil
}

func (l *Ledger) hasFile(owner model.Account, locator string) bool {
	_, ok := l.fileSet[fileKey{owner, locator}]
	return ok
}

func (l *Ledger) lookupFile(owner model.Account, locator string) (model.File, bool) {
	if !l.hasFile(owner, locator) {
		return model.File{}, false
	}
	for _, f := range l.files[owner] {
		if f.Locator == locator {
			return f, true
		}
	}
	return model.File{}, false
}

func (l *Ledger) checkAddFile(ev model.Event) error {
	if ev.Actor == "" || ev.Locator == "" {
		return fmt.Errorf("owner and locator are required: %w", ErrInvalidArgument)
	}
	if l.hasFile(ev.Actor, ev.Locator) {
		return fmt.Errorf("%s/%s: %w", ev.Actor, ev.Locator, ErrDuplicateFile)
	}
	return nil
}

func (l *Ledger) checkDeleteFile(ev model.Event) error {
	if !l.hasFile(ev.Actor, ev.Locator) {
		return fmt.Errorf("%s/%s: %w", ev.Actor, ev.Locator, ErrFileNotFound)
	}
	return nil
}

func (l *Ledger) applyAddFile(ev model.Event) {
	l.files[ev.Actor] = append(l.files[ev.Actor], model.File{
		Owner:       ev.Actor,
		Locator:     ev.Locator,
		DisplayName: ev.DisplayName,
		CreatedAt:   ev.OccurredAt,
	})
	l.fileSet[fileKey{ev.Actor, ev.Locator}] = struct{}{}
}

func (l *Ledger) applyDeleteFile(ev model.Event) {
	key := fileKey{ev.Actor, ev.Locator}

	files := l.files[ev.Actor]
	for i, f := range files {
		if f.Locator == ev.Locator {
			l.files[ev.Actor] = append(files[:i:i], files[i+1:]...)
			break
		}
	}
	if len(l.files[ev.Actor]) == 0 {
		delete(l.files, ev.Actor)
	}
	delete(l.fileSet, key)

	for _, viewer := range l.approvals[key] {
		delete(l.approvalSet, approvalKey{key, viewer})
	}
	delete(l.approvals, key)
}
