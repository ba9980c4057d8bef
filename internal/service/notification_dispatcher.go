package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/edufy-labs/challenge-api/internal/dto"
	"github.com/edufy-labs/challenge-api/internal/events"
	"github.com/edufy-labs/challenge-api/internal/links"
	"github.com/edufy-labs/challenge-api/internal/models"
	"github.com/edufy-labs/challenge-api/internal/observability"
	"github.com/edufy-labs/challenge-api/internal/repository"
)

// Broadcaster pushes a notification onto the live stream.
type Broadcaster interface {
	Broadcast(ctx context.Context, notification dto.NotificationResponse) error
}

// MailSender delivers a notification over email.
type MailSender interface {
	Send(ctx context.Context, to, subject, body, actionURL string) error
}

// DispatcherConfig tunes channel defaults for the dispatcher.
type DispatcherConfig struct {
	// DefaultChannels apply when a user has no preference for a type.
	DefaultChannels []string
	// MailTypes additionally get the mail channel by default.
	MailTypes []string
	// FrontendBaseURL prefixes resolved action paths in mail bodies.
	FrontendBaseURL string
}

// notificationMessage is the channel-independent form of one notification,
// built once per event and rendered per recipient.
type notificationMessage struct {
	Type        string
	EventType   string
	Title       string
	Body        string
	Priority    string
	RelatedType string
	RelatedID   uint
	IDs         links.EntityIDs
	OccurredAt  time.Time
}

type notificationDispatcher struct {
	users         repository.UserRepository
	challenges    repository.ChallengeRepository
	submissions   repository.SubmissionRepository
	comments      repository.CommentRepository
	notifications repository.NotificationRepository
	preferences   repository.PreferenceRepository
	broadcaster   Broadcaster
	mailer        MailSender
	cfg           DispatcherConfig
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewNotificationDispatcher wires the event fan-out. The broadcaster and
// mailer may be nil; their channels are then skipped with a delivery failure.
func NewNotificationDispatcher(
	userRepo repository.UserRepository,
	challengeRepo repository.ChallengeRepository,
	subRepo repository.SubmissionRepository,
	commentRepo repository.CommentRepository,
	notificationRepo repository.NotificationRepository,
	preferenceRepo repository.PreferenceRepository,
	broadcaster Broadcaster,
	mailer MailSender,
	cfg DispatcherConfig,
	logger zerolog.Logger,
) EventDispatcher {
	if len(cfg.DefaultChannels) == 0 {
		cfg.DefaultChannels = []string{models.ChannelDatabase, models.ChannelBroadcast}
	}

	return &notificationDispatcher{
		users:         userRepo,
		challenges:    challengeRepo,
		submissions:   subRepo,
		comments:      commentRepo,
		notifications: notificationRepo,
		preferences:   preferenceRepo,
		broadcaster:   broadcaster,
		mailer:        mailer,
		cfg:           cfg,
		logger:        logger.With().Str("component", "notification_dispatcher").Logger(),
		tracer:        otel.Tracer("github.com/edufy-labs/challenge-api/internal/service/dispatcher"),
	}
}

// Dispatch routes a domain event to its recipients. Delivery is best effort:
// a failed recipient or channel never aborts the rest of the fan-out, and the
// caller's transaction has already committed by the time this runs.
func (d *notificationDispatcher) Dispatch(ctx context.Context, event interface{}) {
	switch e := event.(type) {
	case events.SubmissionCreated:
		d.submissionCreated(ctx, e)
	case events.SubmissionEvaluated:
		d.submissionEvaluated(ctx, e)
	case events.SubmissionStatusChanged:
		d.submissionStatusChanged(ctx, e)
	case events.CommentAdded:
		d.commentAdded(ctx, e)
	case events.ChallengeCancelled:
		d.challengeCancelled(ctx, e)
	default:
		d.logger.Warn().Type("event", event).Msg("unknown event type dropped")
	}
}

func (d *notificationDispatcher) submissionCreated(ctx context.Context, event events.SubmissionCreated) {
	challenge, err := d.challenges.GetByID(ctx, event.ChallengeID)
	if err != nil {
		d.logger.Error().Err(err).Uint("challenge_id", event.ChallengeID).Msg("dispatch aborted: challenge lookup failed")
		return
	}

	student, err := d.users.GetByID(ctx, event.StudentID)
	if err != nil {
		d.logger.Error().Err(err).Uint("student_id", event.StudentID).Msg("dispatch aborted: student lookup failed")
		return
	}

	recipientIDs := []uint{challenge.CreatorID}
	if challenge.SchoolID != nil {
		recipientIDs = append(recipientIDs, *challenge.SchoolID)
	}

	recipients := d.resolveRecipients(ctx, recipientIDs, event.StudentID)

	d.fanOut(ctx, notificationMessage{
		Type:        models.NotificationSubmissionCreated,
		EventType:   events.TypeSubmissionCreated,
		Title:       fmt.Sprintf("New submission for %q", challenge.Title),
		Body:        fmt.Sprintf("%s submitted work to %q.", student.Name, challenge.Title),
		Priority:    models.PriorityNormal,
		RelatedType: "submission",
		RelatedID:   event.SubmissionID,
		IDs:         links.EntityIDs{ChallengeID: event.ChallengeID, SubmissionID: event.SubmissionID},
		OccurredAt:  event.OccurredAt,
	}, recipients)
}

func (d *notificationDispatcher) submissionEvaluated(ctx context.Context, event events.SubmissionEvaluated) {
	// Evaluations hidden from the student produce no student notification.
	if event.Visibility != models.EvaluationVisibilityStudent {
		d.logger.Debug().
			Uint("submission_id", event.SubmissionID).
			Str("visibility", event.Visibility).
			Msg("evaluation not student visible, skipping notification")
		return
	}

	challenge, err := d.challenges.GetByID(ctx, event.ChallengeID)
	if err != nil {
		d.logger.Error().Err(err).Uint("challenge_id", event.ChallengeID).Msg("dispatch aborted: challenge lookup failed")
		return
	}

	recipients := d.resolveRecipients(ctx, []uint{event.StudentID}, event.EvaluatorID)

	body := fmt.Sprintf("Your submission to %q has been evaluated.", challenge.Title)
	if event.Score != nil {
		body = fmt.Sprintf("Your submission to %q was scored %.1f.", challenge.Title, *event.Score)
	}

	d.fanOut(ctx, notificationMessage{
		Type:        models.NotificationSubmissionEvaluated,
		EventType:   events.TypeSubmissionEvaluated,
		Title:       "Your submission has been evaluated",
		Body:        body,
		Priority:    models.PriorityHigh,
		RelatedType: "submission",
		RelatedID:   event.SubmissionID,
		IDs:         links.EntityIDs{ChallengeID: event.ChallengeID, SubmissionID: event.SubmissionID},
		OccurredAt:  event.OccurredAt,
	}, recipients)
}

func (d *notificationDispatcher) submissionStatusChanged(ctx context.Context, event events.SubmissionStatusChanged) {
	// Self-inflicted transitions (withdraw, resubmit) skip the inbox.
	if event.ActorID == event.StudentID {
		return
	}

	challenge, err := d.challenges.GetByID(ctx, event.ChallengeID)
	if err != nil {
		d.logger.Error().Err(err).Uint("challenge_id", event.ChallengeID).Msg("dispatch aborted: challenge lookup failed")
		return
	}

	recipients := d.resolveRecipients(ctx, []uint{event.StudentID}, event.ActorID)

	d.fanOut(ctx, notificationMessage{
		Type:        models.NotificationSubmissionStatus,
		EventType:   events.TypeSubmissionStatusChanged,
		Title:       fmt.Sprintf("Submission %s", event.NewStatus),
		Body:        fmt.Sprintf("Your submission to %q moved from %s to %s.", challenge.Title, event.OldStatus, event.NewStatus),
		Priority:    statusChangePriority(event.NewStatus),
		RelatedType: "submission",
		RelatedID:   event.SubmissionID,
		IDs:         links.EntityIDs{ChallengeID: event.ChallengeID, SubmissionID: event.SubmissionID},
		OccurredAt:  event.OccurredAt,
	}, recipients)
}

func (d *notificationDispatcher) commentAdded(ctx context.Context, event events.CommentAdded) {
	submission, err := d.submissions.GetByID(ctx, event.SubmissionID)
	if err != nil {
		d.logger.Error().Err(err).Uint("submission_id", event.SubmissionID).Msg("dispatch aborted: submission lookup failed")
		return
	}

	author, err := d.users.GetByID(ctx, event.AuthorID)
	if err != nil {
		d.logger.Error().Err(err).Uint("author_id", event.AuthorID).Msg("dispatch aborted: author lookup failed")
		return
	}

	authorIDs, err := d.comments.AuthorIDsBySubmission(ctx, event.SubmissionID)
	if err != nil {
		d.logger.Error().Err(err).Uint("submission_id", event.SubmissionID).Msg("dispatch aborted: thread author lookup failed")
		return
	}

	// Owner, every prior thread participant, and mentioned users; the
	// comment's own author never notifies themselves.
	recipientIDs := append([]uint{submission.StudentID}, authorIDs...)
	recipientIDs = append(recipientIDs, event.Mentions...)

	recipients := d.resolveRecipients(ctx, recipientIDs, event.AuthorID)

	d.fanOut(ctx, notificationMessage{
		Type:        models.NotificationCommentAdded,
		EventType:   events.TypeCommentAdded,
		Title:       "New comment on a submission",
		Body:        fmt.Sprintf("%s commented on a submission you follow.", author.Name),
		Priority:    models.PriorityNormal,
		RelatedType: "comment",
		RelatedID:   event.CommentID,
		IDs:         links.EntityIDs{ChallengeID: event.ChallengeID, SubmissionID: event.SubmissionID},
		OccurredAt:  event.OccurredAt,
	}, recipients)
}

func (d *notificationDispatcher) challengeCancelled(ctx context.Context, event events.ChallengeCancelled) {
	challenge, err := d.challenges.GetByID(ctx, event.ChallengeID)
	if err != nil {
		d.logger.Error().Err(err).Uint("challenge_id", event.ChallengeID).Msg("dispatch aborted: challenge lookup failed")
		return
	}

	recipientIDs := []uint{challenge.CreatorID}
	if challenge.SchoolID != nil {
		recipientIDs = append(recipientIDs, *challenge.SchoolID)
	}

	recipients := d.resolveRecipients(ctx, recipientIDs, event.ActorID)

	d.fanOut(ctx, notificationMessage{
		Type:        models.NotificationChallengeCancelled,
		EventType:   events.TypeChallengeCancelled,
		Title:       fmt.Sprintf("Challenge %q cancelled", challenge.Title),
		Body:        fmt.Sprintf("The challenge %q was cancelled; open submissions have been withdrawn.", challenge.Title),
		Priority:    models.PriorityHigh,
		RelatedType: "challenge",
		RelatedID:   event.ChallengeID,
		IDs:         links.EntityIDs{ChallengeID: event.ChallengeID},
		OccurredAt:  event.OccurredAt,
	}, recipients)
}

// resolveRecipients loads the distinct users behind ids, dropping the
// excluded actor and anything that no longer resolves to an account.
func (d *notificationDispatcher) resolveRecipients(ctx context.Context, ids []uint, exclude uint) []models.User {
	seen := make(map[uint]struct{}, len(ids))
	distinct := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	if len(distinct) == 0 {
		return nil
	}

	users, err := d.users.GetByIDs(ctx, distinct)
	if err != nil {
		d.logger.Error().Err(err).Msg("recipient lookup failed")
		return nil
	}

	return users
}

func (d *notificationDispatcher) fanOut(ctx context.Context, msg notificationMessage, recipients []models.User) {
	spanCtx, span := d.tracer.Start(ctx, "notifications.fan_out", trace.WithAttributes(
		attribute.String("notification.type", msg.Type),
		attribute.Int("notification.recipients", len(recipients)),
	))
	defer span.End()

	for _, recipient := range recipients {
		channels, enabled := d.channelsFor(spanCtx, recipient.ID, msg)
		if !enabled {
			continue
		}

		d.deliver(spanCtx, msg, recipient, channels)
	}
}

// deliver renders the message for one recipient and sends it over each of
// their channels. A channel failure is logged and counted, never propagated.
func (d *notificationDispatcher) deliver(ctx context.Context, msg notificationMessage, recipient models.User, channels []string) {
	actionPath := links.Resolve(msg.EventType, recipient.Role, msg.IDs)

	notification := models.Notification{
		UserID:   recipient.ID,
		Type:     msg.Type,
		Title:    msg.Title,
		Body:     msg.Body,
		Priority: msg.Priority,
		Payload: map[string]interface{}{
			"action": dto.NotificationAction{
				Type:  "navigate",
				Label: "View",
				URL:   actionPath,
			},
			"meta": dto.NotificationMeta{
				RelatedType: msg.RelatedType,
				RelatedID:   msg.RelatedID,
				Timestamp:   msg.OccurredAt,
				Priority:    msg.Priority,
			},
		},
	}

	persisted := false
	for _, channel := range channels {
		var err error
		switch channel {
		case models.ChannelDatabase:
			err = d.notifications.Create(ctx, &notification)
			persisted = err == nil
		case models.ChannelBroadcast:
			if d.broadcaster == nil {
				err = fmt.Errorf("broadcast channel unavailable")
				break
			}
			response := dto.NewNotificationResponse(notification)
			if !persisted {
				response.ID = 0
			}
			err = d.broadcaster.Broadcast(ctx, response)
		case models.ChannelMail:
			if d.mailer == nil {
				err = fmt.Errorf("mail channel unavailable")
				break
			}
			err = d.mailer.Send(ctx, recipient.Email, msg.Title, msg.Body, d.cfg.FrontendBaseURL+actionPath)
		default:
			err = fmt.Errorf("unknown channel %q", channel)
		}

		if err != nil {
			observability.NotificationDeliveryFailures().WithLabelValues(channel).Inc()
			d.logger.Warn().
				Err(err).
				Uint("recipient_id", recipient.ID).
				Str("type", msg.Type).
				Str("channel", channel).
				Msg("notification delivery failed")
			continue
		}

		observability.NotificationsPublished().WithLabelValues(msg.Type, channel).Inc()
	}
}

// channelsFor resolves the effective channels for (user, type): an explicit
// preference wins, otherwise the configured defaults apply, with mail added
// for the types that opt into it. A disabled preference mutes the type.
func (d *notificationDispatcher) channelsFor(ctx context.Context, userID uint, msg notificationMessage) ([]string, bool) {
	preference, err := d.preferences.Get(ctx, userID, msg.Type)
	if err != nil {
		d.logger.Warn().Err(err).Uint("user_id", userID).Str("type", msg.Type).Msg("preference lookup failed, using defaults")
		preference = nil
	}

	if preference != nil {
		if !preference.Enabled {
			return nil, false
		}
		if len(preference.Channels) > 0 {
			return orderedChannels(preference.Channels), true
		}
	}

	channels := append([]string(nil), d.cfg.DefaultChannels...)
	for _, mailType := range d.cfg.MailTypes {
		if mailType == msg.Type {
			channels = append(channels, models.ChannelMail)
			break
		}
	}

	return orderedChannels(channels), true
}

// orderedChannels dedupes and orders channels so the database write always
// precedes the broadcast; the stream then carries the persisted record.
func orderedChannels(channels []string) []string {
	seen := make(map[string]struct{}, len(channels))
	ordered := make([]string, 0, len(channels))
	for _, channel := range []string{models.ChannelDatabase, models.ChannelBroadcast, models.ChannelMail} {
		for _, candidate := range channels {
			if candidate != channel {
				continue
			}
			if _, ok := seen[channel]; ok {
				continue
			}
			seen[channel] = struct{}{}
			ordered = append(ordered, channel)
		}
	}

	for _, candidate := range channels {
		if _, ok := seen[candidate]; !ok {
			seen[candidate] = struct{}{}
			ordered = append(ordered, candidate)
		}
	}

	return ordered
}

func statusChangePriority(newStatus string) string {
	switch newStatus {
	case models.SubmissionStatusApproved, models.SubmissionStatusRejected:
		return models.PriorityHigh
	default:
		return models.PriorityNormal
	}
}
