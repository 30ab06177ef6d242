package domain

// NotificationEvent identifies why a client is being notified.
type NotificationEvent string

const (
	EventTaskAssigned     NotificationEvent = "task_assigned"
	EventTaskCompleted    NotificationEvent = "task_completed"
	EventTaskDueSoon      NotificationEvent = "task_due_soon"
	EventDocumentUploaded NotificationEvent = "document_uploaded"
)

// Notification is an outbound message to a phone number. Occurrence tells
// apart repeats of the same event on one entity, such as a task completed a
// second time after being reopened; replays of one occurrence share it.
type Notification struct {
	Event      NotificationEvent
	EntityID   string
	Occurrence string
	Phone      string
	Message    string
}
