// Package reminder turns open approval tasks into notification records for
// the people responsible for them.
package reminder

import (
	"fmt"
	"strings"

	"github.com/Chatblanccc/PersonnelManagement/internal/approval"
	"github.com/Chatblanccc/PersonnelManagement/internal/directory"
	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/metrics"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/notify"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"gorm.io/gorm"
)

// DefaultReviewPath is the review page notifications link to.
const DefaultReviewPath = "/approvals"

// Target selects the tasks to remind about: by record, or by subject name
// and group when RecordID is empty.
type Target struct {
	RecordID     string
	SubjectName  string
	SubjectGroup string
}

func (t Target) String() string {
	if t.RecordID != "" {
		return "record " + t.RecordID
	}
	return fmt.Sprintf("subject %s (%s)", t.SubjectName, t.SubjectGroup)
}

func (t Target) scope() (func(*gorm.DB) *gorm.DB, error) {
	switch {
	case t.RecordID != "":
		return func(q *gorm.DB) *gorm.DB { return q.Where("record_id = ?", t.RecordID) }, nil
	case t.SubjectName != "" && t.SubjectGroup != "":
		return func(q *gorm.DB) *gorm.DB {
			return q.Where("subject_name = ? AND subject_group = ?", t.SubjectName, t.SubjectGroup)
		}, nil
	default:
		return nil, errs.Validation("a record id or a subject name and group is required")
	}
}

// Options configures notification links.
type Options struct {
	ReviewPath string
}

func (o Options) reviewPath() string {
	if o.ReviewPath == "" {
		return DefaultReviewPath
	}
	return o.ReviewPath
}

// Send creates one notification per directory user responsible for the
// target's pending or in-progress tasks, and returns how many it created.
// Identities that do not resolve to a user are skipped. A zero count means
// nothing matched. Repeated calls create repeated notifications.
func Send(db *gorm.DB, cat *stage.Catalog, target Target, sender string, opts Options) (int, error) {
	scope, err := target.scope()
	if err != nil {
		return 0, err
	}

	count := 0
	err = db.Transaction(func(tx *gorm.DB) error {
		var tasks []models.ApprovalTask
		if err := tx.Scopes(scope).
			Where("status IN ?", []string{approval.StatusPending, approval.StatusInProgress}).
			Preload("Assignees", func(p *gorm.DB) *gorm.DB { return p.Order("position ASC") }).
			Order("due_date ASC").Find(&tasks).Error; err != nil {
			return fmt.Errorf("reminder: load tasks for %s: %w", target, err)
		}
		if len(tasks) == 0 {
			return nil
		}

		users, err := resolveAll(tx, identities(tasks))
		if err != nil {
			return err
		}

		title, content, link, opt := manualMessage(cat, tasks, sender, opts)
		if target.RecordID != "" {
			rid := target.RecordID
			opt.RecordID = &rid
		} else {
			opt.RecordID = tasks[0].RecordID
		}
		opt.LinkURL = link
		for _, u := range users {
			if _, err := notify.Send(tx, u.ID, title, content, opt); err != nil {
				return fmt.Errorf("reminder: %w", err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.NotificationsCreated.WithLabelValues("manual").Add(float64(count))
	return count, nil
}

func manualMessage(cat *stage.Catalog, tasks []models.ApprovalTask, sender string, opts Options) (title, content, link string, opt notify.SendOpts) {
	first := tasks[0]
	taskID := first.ID
	opt = notify.SendOpts{Type: notify.TypeApprovalPending, TaskID: &taskID}
	if len(tasks) == 1 {
		name := stageName(cat, first.StageKey)
		title = fmt.Sprintf("Approval reminder: %s - %s", first.SubjectName, name)
		content = fmt.Sprintf("%s reminds you: the %q stage for %s (%s) is awaiting action, due %s.",
			sender, name, first.SubjectName, first.SubjectGroup, first.DueDate.Format("2006-01-02"))
		link = opts.reviewPath() + "?taskId=" + first.ID
		return title, content, link, opt
	}
	title = fmt.Sprintf("Approval reminder: %s has %d stages awaiting action", first.SubjectName, len(tasks))
	content = fmt.Sprintf("%s reminds you: %s (%s) has %d approval stages awaiting your action.",
		sender, first.SubjectName, first.SubjectGroup, len(tasks))
	return title, content, opts.reviewPath(), opt
}

func stageName(cat *stage.Catalog, key string) string {
	if st, ok := cat.Get(key); ok && st.Name != "" {
		return st.Name
	}
	return key
}

// identities collects owners and assignees across tasks in first-seen order.
func identities(tasks []models.ApprovalTask) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" || id == approval.UnassignedOwner || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	for i := range tasks {
		add(tasks[i].Owner)
		for _, a := range tasks[i].Assignees {
			add(a.Identity)
		}
	}
	return out
}

// resolveAll maps identities to directory users, skipping unresolved ones
// and collapsing identities that resolve to the same user.
func resolveAll(db *gorm.DB, ids []string) ([]models.User, error) {
	seen := make(map[string]bool)
	var users []models.User
	for _, id := range ids {
		u, err := directory.Resolve(db, id)
		if err != nil {
			return nil, fmt.Errorf("reminder: %w", err)
		}
		if u == nil || seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		users = append(users, *u)
	}
	return users, nil
}
