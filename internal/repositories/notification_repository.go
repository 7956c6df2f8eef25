package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
)

type NotificationRepository struct {
	DB *sql.DB
}

func (r NotificationRepository) db() (*sql.DB, error) { return pick(r.DB) }

const notificationSelect = `
	SELECT
		n.notification_id, n.user_id, n.title, n.message, n.type, n.priority,
		n.is_read, n.bus_id, n.route_id, n.created_at,
		b.bus_number, r.source_name, r.destination_name
	FROM notifications n
	LEFT JOIN buses b ON n.bus_id = b.bus_id
	LEFT JOIN routes r ON n.route_id = r.route_id`

func scanNotification(sc interface{ Scan(...any) error }) (models.Notification, error) {
	var (
		n                       models.Notification
		busID, routeID          sql.NullInt64
		busNumber, source, dest sql.NullString
	)
	if err := sc.Scan(
		&n.NotificationID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Priority,
		&n.IsRead, &busID, &routeID, &n.CreatedAt,
		&busNumber, &source, &dest,
	); err != nil {
		return models.Notification{}, err
	}
	n.BusID, n.RouteID = nullInt(busID), nullInt(routeID)
	n.BusNumber, n.SourceName, n.DestinationName = nullString(busNumber), nullString(source), nullString(dest)
	return n, nil
}

func collectNotifications(rows *sql.Rows) ([]models.Notification, error) {
	defer rows.Close()
	out := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// List returns the user's notifications, newest first, applying the optional
// filters.
func (r NotificationRepository) List(ctx context.Context, f models.NotificationFilter) ([]models.Notification, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString(notificationSelect)
	sb.WriteString("\n\tWHERE n.user_id = ?")
	args := []any{f.UserID}
	if f.Type != "" {
		sb.WriteString(" AND n.type = ?")
		args = append(args, f.Type)
	}
	if f.Priority != "" {
		sb.WriteString(" AND n.priority = ?")
		args = append(args, f.Priority)
	}
	if f.IsRead != nil {
		sb.WriteString(" AND n.is_read = ?")
		args = append(args, *f.IsRead)
	}
	sb.WriteString(" ORDER BY n.created_at DESC, n.priority DESC LIMIT ? OFFSET ?")
	args = append(args, f.Limit, f.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return collectNotifications(rows)
}

func (r NotificationRepository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	db, err := r.db()
	if err != nil {
		return 0, err
	}
	var n int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}

// MarkRead flags one notification as read. Marking an already read
// notification succeeds; only a missing or foreign notification is NotFound.
func (r NotificationRepository) MarkRead(ctx context.Context, userID, notificationID int64) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE notification_id = ? AND user_id = ?`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	exists, err := r.owned(ctx, db, userID, notificationID)
	if err != nil {
		return err
	}
	if !exists {
		return notificationNotFound()
	}
	return nil
}

func (r NotificationRepository) owned(ctx context.Context, q queryer, userID, notificationID int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM notifications WHERE notification_id = ? AND user_id = ?`,
		notificationID, userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup notification: %w", err)
	}
	return true, nil
}

// MarkAllRead returns the number of notifications that changed state.
func (r NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	db, err := r.db()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND is_read = FALSE`, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r NotificationRepository) Create(ctx context.Context, in models.NewNotification) (int64, error) {
	db, err := r.db()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, title, message, type, priority, bus_id, route_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, in.UserID, in.Title, in.Message, string(in.Type), string(in.Priority), in.BusID, in.RouteID)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	return res.LastInsertId()
}

func (r NotificationRepository) GetByID(ctx context.Context, notificationID int64) (models.Notification, error) {
	db, err := r.db()
	if err != nil {
		return models.Notification{}, err
	}
	n, err := scanNotification(db.QueryRowContext(ctx, notificationSelect+"\n\tWHERE n.notification_id = ?", notificationID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Notification{}, notificationNotFound()
	}
	if err != nil {
		return models.Notification{}, fmt.Errorf("get notification %d: %w", notificationID, err)
	}
	return n, nil
}

func (r NotificationRepository) Delete(ctx context.Context, userID, notificationID int64) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		`DELETE FROM notifications WHERE notification_id = ? AND user_id = ?`, notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notificationNotFound()
	}
	return nil
}

// RecentUnread returns unread notifications created after since, for every
// user, newest first.
func (r NotificationRepository) RecentUnread(ctx context.Context, since time.Time) ([]models.Notification, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, notificationSelect+`
	WHERE n.is_read = FALSE AND n.created_at > ?
	ORDER BY n.created_at DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("recent unread notifications: %w", err)
	}
	return collectNotifications(rows)
}

func notificationNotFound() error {
	return domain.NotFoundError{
		Resource: "notification",
		Msg:      "Notification not found or does not belong to user",
	}
}
