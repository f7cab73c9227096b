package event

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupPublisherMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestOutboxPublisher_PublishWithTx(t *testing.T) {
	db, mock := setupPublisherMockDB(t)
	serializer := NewEventSerializer()
	serializer.Register("royalty.statement.generated", &testEvent{})
	publisher := NewOutboxPublisher(serializer)

	event := newTestEvent("royalty.statement.generated", uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "outbox_events"`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(event.OccurredAt(), event.OccurredAt()))
	mock.ExpectCommit()

	err := db.Transaction(func(tx *gorm.DB) error {
		return publisher.PublishWithTx(context.Background(), tx, event)
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxPublisher_PublishWithTx_MultipleEvents(t *testing.T) {
	db, mock := setupPublisherMockDB(t)
	serializer := NewEventSerializer()
	serializer.Register("catalog.isbn_block.completed", &testEvent{})
	publisher := NewOutboxPublisher(serializer)

	tenantID := uuid.New()
	events := []shared.DomainEvent{
		newTestEvent("catalog.isbn_block.completed", tenantID),
		newTestEvent("catalog.isbn_block.completed", tenantID),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "outbox_events"`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(events[0].OccurredAt(), events[0].OccurredAt()).
			AddRow(events[1].OccurredAt(), events[1].OccurredAt()))
	mock.ExpectCommit()

	err := db.Transaction(func(tx *gorm.DB) error {
		return publisher.PublishWithTx(context.Background(), tx, events...)
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxPublisher_PublishWithTx_EmptyEvents(t *testing.T) {
	db, mock := setupPublisherMockDB(t)
	publisher := NewOutboxPublisher(NewEventSerializer())

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := db.Transaction(func(tx *gorm.DB) error {
		return publisher.PublishWithTx(context.Background(), tx)
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxPublisher_SaveEvents_RejectsNonGormTx(t *testing.T) {
	publisher := NewOutboxPublisher(NewEventSerializer())

	err := publisher.SaveEvents(context.Background(), "not a tx",
		newTestEvent("royalty.statement.generated", uuid.New()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "*gorm.DB")
}

func TestOutboxPublisher_SaveEvents_EmptyIsNoop(t *testing.T) {
	publisher := NewOutboxPublisher(NewEventSerializer())

	// No tx needed when there is nothing to save
	require.NoError(t, publisher.SaveEvents(context.Background(), nil))
}
