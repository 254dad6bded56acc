package relay

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/directory"
	"github.com/Chatblanccc/PersonnelManagement/internal/metrics"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Opts configures a Relay.
type Opts struct {
	ChannelID string
	Interval  time.Duration
	BatchSize int
	LinkBase  string
	Template  string
	Log       *zap.Logger
}

// Relay polls undelivered notifications and posts them through an Adapter.
type Relay struct {
	db      *gorm.DB
	adapter Adapter
	opts    Opts
	tmpl    *template.Template
	log     *zap.Logger
	now     func() time.Time
}

// New creates a Relay.
func New(db *gorm.DB, adapter Adapter, opts Opts) (*Relay, error) {
	if db == nil {
		return nil, fmt.Errorf("relay: db is required")
	}
	if adapter == nil {
		return nil, fmt.Errorf("relay: adapter is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	tmpl, err := notify.ParseTemplate(opts.Template)
	if err != nil {
		return nil, fmt.Errorf("relay: %w", err)
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{db: db, adapter: adapter, opts: opts, tmpl: tmpl, log: log, now: time.Now}, nil
}

// Flush delivers one batch of undelivered notifications, oldest first, and
// returns how many were delivered. Delivery stops at the first send error;
// the failed notification and everything after it stay undelivered for the
// next flush.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	db := r.db.WithContext(ctx)
	pending, err := notify.Undelivered(db, r.opts.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	userIDs := make([]string, 0, len(pending))
	for _, n := range pending {
		userIDs = append(userIDs, n.UserID)
	}
	names, err := directory.Names(db, userIDs)
	if err != nil {
		return 0, fmt.Errorf("relay: %w", err)
	}

	platform := r.adapter.Platform()
	var delivered []uint
	var sendErr error
	for i := range pending {
		n := &pending[i]
		msg, err := r.message(n, names[n.UserID])
		if err != nil {
			sendErr = fmt.Errorf("relay: %w", err)
			break
		}
		if err := r.adapter.Send(ctx, msg); err != nil {
			metrics.RelayDeliveries.WithLabelValues(platform, metrics.ResultError).Inc()
			sendErr = fmt.Errorf("relay: send notification %d: %w", n.ID, err)
			break
		}
		metrics.RelayDeliveries.WithLabelValues(platform, metrics.ResultOK).Inc()
		delivered = append(delivered, n.ID)
	}

	if err := notify.MarkDelivered(db, delivered, r.now()); err != nil {
		return 0, err
	}
	return len(delivered), sendErr
}

func (r *Relay) message(n *models.Notification, recipient string) (Message, error) {
	text, err := notify.Render(r.tmpl, n, r.opts.LinkBase)
	if err != nil {
		return Message{}, err
	}
	if recipient == "" {
		recipient = n.UserID
	}
	msg := Message{
		ChannelID: r.opts.ChannelID,
		Text:      text,
		Title:     n.Title,
		Fields: []Field{
			{Name: "Recipient", Value: recipient, Short: true},
			{Name: "Type", Value: n.Type, Short: true},
		},
	}
	if n.LinkURL != "" {
		msg.Link = strings.TrimRight(r.opts.LinkBase, "/") + n.LinkURL
	}
	return msg, nil
}

// Run flushes on every interval until ctx is cancelled. Flush errors are
// logged and retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	r.log.Info("relay started",
		zap.String("platform", r.adapter.Platform()),
		zap.Duration("interval", r.opts.Interval))

	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()
	for {
		n, err := r.Flush(ctx)
		if err != nil && ctx.Err() == nil {
			r.log.Warn("relay flush failed", zap.Int("delivered", n), zap.Error(err))
		} else if n > 0 {
			r.log.Debug("relay flushed", zap.Int("delivered", n))
		}

		select {
		case <-ctx.Done():
			r.log.Info("relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}
