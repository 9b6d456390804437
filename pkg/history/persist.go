package history

import (
	"os"

	"github.com/dsg-dev/dsg-sync/pkg/filesystem"
	"github.com/dsg-dev/dsg-sync/pkg/logging"
)

// Load reads the sync-messages and tag-messages mirrors from the working
// copy rooted at root, returning an empty Index if neither file exists yet
// (spec §6, "sync-messages.json" / "tag-messages.json").
func Load(root string) (*Index, error) {
	idx := New()

	messagesData, err := os.ReadFile(filesystem.SyncMessagesPath(root))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		messages, parseErr := ParseMessages(messagesData)
		if parseErr != nil {
			return nil, parseErr
		}
		idx.Messages = messages
	}

	tagsData, err := os.ReadFile(filesystem.TagMessagesPath(root))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		tags, parseErr := ParseTags(tagsData)
		if parseErr != nil {
			return nil, parseErr
		}
		idx.Tags = tags
	}

	return idx, nil
}

// Save atomically rewrites both mirror files for the working copy rooted
// at root.
func (idx *Index) Save(root string, logger *logging.Logger) error {
	messagesData, err := idx.MarshalMessages()
	if err != nil {
		return err
	}
	if err := filesystem.WriteFileAtomic(filesystem.SyncMessagesPath(root), messagesData, 0600, logger); err != nil {
		return err
	}

	tagsData, err := idx.MarshalTags()
	if err != nil {
		return err
	}
	return filesystem.WriteFileAtomic(filesystem.TagMessagesPath(root), tagsData, 0600, logger)
}
