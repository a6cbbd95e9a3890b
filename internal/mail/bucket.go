package mail

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/adminauth-server/internal/model"
)

// BucketDispatcher drops each message as an .eml object into object storage.
// Objects are keyed mail/<yyyy-mm-dd>/<id>.eml.
type BucketDispatcher struct {
	storage model.Storage
	from    string
	now     func() time.Time
}

var _ model.MailDispatcher = (*BucketDispatcher)(nil)

func NewBucketDispatcher(storage model.Storage, from string) *BucketDispatcher {
	return &BucketDispatcher{storage: storage, from: from, now: time.Now}
}

func (d *BucketDispatcher) Send(ctx context.Context, msg model.MailMessage) error {
	now := d.now().UTC()
	id := uuid.NewString()

	raw, err := Compose(d.from, msg, now, id+"@mail-drop")
	if err != nil {
		return err
	}

	key := fmt.Sprintf("mail/%s/%s.eml", now.Format(time.DateOnly), id)
	if err := d.storage.Upload(ctx, key, bytes.NewReader(raw), int64(len(raw)), "message/rfc822"); err != nil {
		return fmt.Errorf("failed to store mail: %w", err)
	}

	return nil
}
