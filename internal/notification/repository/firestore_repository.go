package repository

import (
	"context"
	"fmt"

	notifdomain "portal-backend/internal/notification/domain"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NotificationsCollection needs a composite index on (recipientId ASC, createdAt DESC).
const NotificationsCollection = "notifications"

type firestoreInboxRepository struct {
	client *firestore.Client
}

// NewFirestoreInboxRepository creates a Firestore-backed InboxRepository
func NewFirestoreInboxRepository(client *firestore.Client) InboxRepository {
	return &firestoreInboxRepository{client: client}
}

func (r *firestoreInboxRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(NotificationsCollection)
}

func (r *firestoreInboxRepository) Create(ctx context.Context, n *notifdomain.Notification) error {
	_, err := r.collection().Doc(n.ID).Create(ctx, n)
	return err
}

func (r *firestoreInboxRepository) FindByID(ctx context.Context, id string) (*notifdomain.Notification, error) {
	snap, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return decode(snap)
}

func (r *firestoreInboxRepository) FindByRecipient(ctx context.Context, recipientID string, limit int) ([]notifdomain.Notification, error) {
	docs, err := r.collection().
		Where("recipientId", "==", recipientID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}

	out := make([]notifdomain.Notification, 0, len(docs))
	for _, doc := range docs {
		n, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, nil
}

func (r *firestoreInboxRepository) unread(recipientID string) firestore.Query {
	return r.collection().
		Where("recipientId", "==", recipientID).
		Where("read", "==", false)
}

func (r *firestoreInboxRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	q := r.unread(recipientID)
	res, err := q.NewAggregationQuery().WithCount("unread").Get(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := res["unread"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result %T", res["unread"])
	}
	return v.GetIntegerValue(), nil
}

func (r *firestoreInboxRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.collection().Doc(id).Update(ctx, []firestore.Update{{Path: "read", Value: true}})
	return err
}

func (r *firestoreInboxRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	docs, err := r.unread(recipientID).Documents(ctx).GetAll()
	if err != nil {
		return err
	}
	_, err = r.bulk(ctx, docs, func(bw *firestore.BulkWriter, ref *firestore.DocumentRef) (*firestore.BulkWriterJob, error) {
		return bw.Update(ref, []firestore.Update{{Path: "read", Value: true}})
	})
	return err
}

func (r *firestoreInboxRepository) DeleteByRecipient(ctx context.Context, recipientID string) (int64, error) {
	docs, err := r.collection().Where("recipientId", "==", recipientID).Documents(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	return r.bulk(ctx, docs, func(bw *firestore.BulkWriter, ref *firestore.DocumentRef) (*firestore.BulkWriterJob, error) {
		return bw.Delete(ref)
	})
}

// bulk applies op to every document and reports how many writes succeeded.
func (r *firestoreInboxRepository) bulk(ctx context.Context, docs []*firestore.DocumentSnapshot, op func(*firestore.BulkWriter, *firestore.DocumentRef) (*firestore.BulkWriterJob, error)) (int64, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, doc := range docs {
		job, err := op(bw, doc.Ref)
		if err != nil {
			bw.End()
			return 0, err
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var done int64
	var firstErr error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		done++
	}
	return done, firstErr
}

func decode(snap *firestore.DocumentSnapshot) (*notifdomain.Notification, error) {
	var n notifdomain.Notification
	if err := snap.DataTo(&n); err != nil {
		return nil, err
	}
	n.ID = snap.Ref.ID
	return &n, nil
}
