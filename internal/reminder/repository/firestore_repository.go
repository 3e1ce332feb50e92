package repository

import (
	"context"
	"time"

	"portal-backend/internal/reminder/domain"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RemindersCollection needs a composite index on (sent ASC, dueAt ASC).
const RemindersCollection = "reminders"

type firestoreReminderRepository struct {
	client *firestore.Client
}

// NewFirestoreReminderRepository creates a Firestore-backed ReminderRepository
func NewFirestoreReminderRepository(client *firestore.Client) ReminderRepository {
	return &firestoreReminderRepository{client: client}
}

func (r *firestoreReminderRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(RemindersCollection)
}

func (r *firestoreReminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	_, err := r.collection().Doc(reminder.ID).Create(ctx, reminder)
	return err
}

func (r *firestoreReminderRepository) FindByID(ctx context.Context, id string) (*domain.Reminder, error) {
	snap, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return decode(snap)
}

func (r *firestoreReminderRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection().Doc(id).Delete(ctx)
	return err
}

func (r *firestoreReminderRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*domain.Reminder, error) {
	docs, err := r.collection().
		Where("sent", "==", false).
		Where("dueAt", "<=", now).
		OrderBy("dueAt", firestore.Asc).
		Limit(limit).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Reminder, 0, len(docs))
	for _, doc := range docs {
		reminder, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, reminder)
	}
	return out, nil
}

func (r *firestoreReminderRepository) MarkSent(ctx context.Context, id string) error {
	_, err := r.collection().Doc(id).Update(ctx, []firestore.Update{
		{Path: "sent", Value: true},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	return err
}

func decode(snap *firestore.DocumentSnapshot) (*domain.Reminder, error) {
	var reminder domain.Reminder
	if err := snap.DataTo(&reminder); err != nil {
		return nil, err
	}
	reminder.ID = snap.Ref.ID
	return &reminder, nil
}
