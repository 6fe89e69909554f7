package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/events"
	"github.com/spec-kit/legal-aid-service/internal/mailer"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

// NotificationService turns domain events into in-app notifications and email.
type NotificationService struct {
	dispatcher    events.Dispatcher
	notifications repository.NotificationRepository
	users         repository.UserRepository
	mailer        mailer.Mailer
	logger        *zap.Logger
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Dispatcher       events.Dispatcher
	NotificationRepo repository.NotificationRepository
	UserRepo         repository.UserRepository
	Mailer           mailer.Mailer
	Logger           *zap.Logger
}

// notice is one message fanned out to several recipients.
type notice struct {
	kind       domain.NotificationType
	title      string
	body       string
	entityType string
	recipients []string
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:    deps.Dispatcher,
		notifications: deps.NotificationRepo,
		users:         deps.UserRepo,
		mailer:        deps.Mailer,
		logger:        logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCaseRegistered, n.handleCaseRegistered)
	n.dispatcher.Subscribe(events.EventCaseAssigned, n.handleCaseAssigned)
	n.dispatcher.Subscribe(events.EventCaseStatusChanged, n.handleCaseStatusChanged)
	n.dispatcher.Subscribe(events.EventCaseLawyerAssigned, n.handleCaseLawyerAssigned)
	n.dispatcher.Subscribe(events.EventAppealUpdated, n.handleAppealUpdated)
	n.dispatcher.Subscribe(events.EventDocumentReviewed, n.handleDocumentReviewed)
	n.dispatcher.Subscribe(events.EventAppointmentUpdated, n.handleAppointment)
	n.dispatcher.Subscribe(events.EventAppointmentReminder, n.handleAppointment)
	n.dispatcher.Subscribe(events.EventPaymentUpdated, n.handlePaymentUpdated)
}

func (n *NotificationService) handleCaseRegistered(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.CaseRegisteredPayload)
	if !ok {
		return payloadError(event)
	}
	return n.deliver(ctx, event, notice{
		kind:       domain.NotificationCaseRegistered,
		title:      fmt.Sprintf("Case %s registered", p.CaseNumber),
		body:       fmt.Sprintf("Your case %q has been registered and is awaiting a coordinator.", p.Title),
		entityType: "case",
		recipients: []string{p.ClientID},
	})
}

func (n *NotificationService) handleCaseAssigned(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.CaseAssignedPayload)
	if !ok {
		return payloadError(event)
	}
	return n.deliver(ctx, event, notice{
		kind:       domain.NotificationCaseAssigned,
		title:      fmt.Sprintf("Case %s assigned", p.CaseNumber),
		body:       fmt.Sprintf("Case %s now has a coordinator.", p.CaseNumber),
		entityType: "case",
		recipients: []string{p.ClientID, p.CoordinatorID},
	})
}

func (n *NotificationService) handleCaseStatusChanged(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.CaseStatusChangedPayload)
	if !ok {
		return payloadError(event)
	}
	body := fmt.Sprintf("Case %s moved from %s to %s.", p.CaseNumber, p.OldStatus, p.NewStatus)
	if p.Reason != "" {
		body += " Reason: " + p.Reason
	}
	return n.deliver(ctx, event, notice{
		kind:       domain.NotificationCaseStatusChanged,
		title:      fmt.Sprintf("Case %s is %s", p.CaseNumber, p.NewStatus),
		body:       body,
		entityType: "case",
		recipients: []string{p.ClientID, deref(p.CoordinatorID), deref(p.LawyerID)},
	})
}

func (n *NotificationService) handleCaseLawyerAssigned(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.CaseLawyerAssignedPayload)
	if !ok {
		return payloadError(event)
	}
	return n.deliver(ctx, event, notice{
		kind:       domain.NotificationCaseAssigned,
		title:      fmt.Sprintf("Lawyer assigned to case %s", p.CaseNumber),
		body:       fmt.Sprintf("A lawyer has been assigned to case %s.", p.CaseNumber),
		entityType: "case",
		recipients: []string{p.ClientID, p.LawyerID},
	})
}

func (n *NotificationService) handleAppealUpdated(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.AppealUpdatedPayload)
	if !ok {
		return payloadError(event)
	}
	body := fmt.Sprintf("Appeal %q is now %s.", p.Title, p.Status)
	if p.HearingDate != nil {
		body += " Hearing: " + p.HearingDate.UTC().Format("2006-01-02 15:04 MST")
	}
	return n.deliver(ctx, event, notice{
		kind:       domain.NotificationAppealUpdated,
		title:      "Appeal " + strings.ToLower(string(p.Status)),
		body:       body,
		entityType: "appeal",
		recipients: []string{p.ClientID, p.LawyerID},
	})
}

func (n *NotificationService) handleDocumentReviewed(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.DocumentReviewedPayload)
	if !ok {
		return payloadError(event)
	}
	body := fmt.Sprintf("Document %s was %s.", p.FileName, strings.ToLower(string(p.Status)))
	if p.Note != "" {
		body += " Note: " + p.Note
	}
	return n.deliver(ctx, event, notice{
		kind:       domain.NotificationDocumentReviewed,
		title:      "Document " + strings.ToLower(string(p.Status)),
		body:       body,
		entityType: "document",
		recipients: []string{p.UploadedBy},
	})
}

func (n *NotificationService) handleAppointment(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.AppointmentUpdatedPayload)
	if !ok {
		return payloadError(event)
	}
	when := p.StartsAt.UTC().Format("2006-01-02 15:04 MST")
	msg := notice{
		kind:       domain.NotificationAppointmentUpdated,
		title:      "Appointment " + strings.ToLower(string(p.Status)),
		body:       fmt.Sprintf("Appointment on %s is %s.", when, strings.ToLower(string(p.Status))),
		entityType: "appointment",
		recipients: []string{p.ClientID, p.StaffID},
	}
	if event.Type == events.EventAppointmentReminder {
		msg.kind = domain.NotificationAppointmentReminder
		msg.title = "Upcoming appointment"
		msg.body = fmt.Sprintf("Reminder: you have an appointment on %s.", when)
	}
	if p.Location != "" {
		msg.body += " Location: " + p.Location
	}
	return n.deliver(ctx, event, msg)
}

func (n *NotificationService) handlePaymentUpdated(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.PaymentUpdatedPayload)
	if !ok {
		return payloadError(event)
	}
	return n.deliver(ctx, event, notice{
		kind:       domain.NotificationPaymentUpdated,
		title:      "Payment " + strings.ToLower(string(p.Status)),
		body:       fmt.Sprintf("Payment of %s %s is %s.", formatCents(p.AmountCents), p.Currency, strings.ToLower(string(p.Status))),
		entityType: "payment",
		recipients: []string{p.ClientID},
	})
}

// deliver stores one notification per recipient and emails it. The actor is
// not notified of their own action. Email failures are logged only.
func (n *NotificationService) deliver(ctx context.Context, event events.Event, msg notice) error {
	var failed []string
	for _, userID := range recipients(msg.recipients, event.ActorID) {
		row := &domain.Notification{
			UserID:     userID,
			Type:       msg.kind,
			Title:      msg.title,
			Body:       msg.body,
			EntityType: msg.entityType,
			EntityID:   event.EntityID,
		}
		if err := n.notifications.Create(ctx, row); err != nil {
			n.logger.Error("storing notification", zap.String("user_id", userID), zap.String("event_type", string(event.Type)), zap.Error(err))
			failed = append(failed, userID)
			continue
		}
		n.email(ctx, userID, msg)
	}
	if len(failed) > 0 {
		return fmt.Errorf("notify %s: %d recipients failed", event.Type, len(failed))
	}
	return nil
}

func (n *NotificationService) email(ctx context.Context, userID string, msg notice) {
	if n.mailer == nil || n.users == nil {
		return
	}
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.Warn("loading notification recipient", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if user.Email == "" {
		return
	}
	if err := n.mailer.Send(ctx, mailer.Message{ToName: user.Name, ToEmail: user.Email, Subject: msg.title, Body: msg.body}); err != nil {
		n.logger.Warn("emailing notification", zap.String("user_id", userID), zap.Error(err))
	}
}

// List returns the caller's notifications, newest first.
func (n *NotificationService) List(ctx context.Context, actor *domain.User, unreadOnly bool, page repository.Page) (ListResult[domain.Notification], error) {
	if err := requireActor(actor); err != nil {
		return ListResult[domain.Notification]{}, err
	}
	items, total, err := n.notifications.List(ctx, actor.ID, unreadOnly, page)
	if err != nil {
		return ListResult[domain.Notification]{}, apperrors.MapError(err)
	}
	return newListResult(items, total, page), nil
}

func (n *NotificationService) UnreadCount(ctx context.Context, actor *domain.User) (int, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	count, err := n.notifications.CountUnread(ctx, actor.ID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

func (n *NotificationService) MarkRead(ctx context.Context, actor *domain.User, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := n.notifications.MarkRead(ctx, id, actor.ID); err != nil {
		return apperrors.NotFoundOr(err, "notification", map[string]any{"notification_id": id})
	}
	return nil
}

func (n *NotificationService) MarkAllRead(ctx context.Context, actor *domain.User) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	count, err := n.notifications.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// recipients drops blanks, duplicates and the actor.
func recipients(ids []string, actorID *string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if actorID != nil && *actorID == id {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func payloadError(event events.Event) error {
	return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
