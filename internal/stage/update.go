package stage

import (
	"fmt"

	"github.com/Chatblanccc/PersonnelManagement/internal/directory"
	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"gorm.io/gorm"
)

// UpdateOpts is a partial stage update. Nil fields are left unchanged. An
// empty OwnerID clears the owner.
type UpdateOpts struct {
	Key          string                     `json:"key"`
	OwnerID      *string                    `json:"owner_id"`
	AssistantIDs *[]string                  `json:"assistants"`
	SLADays      *int                       `json:"sla_days"`
	SLAText      *string                    `json:"sla_text"`
	Checklist    *[]string                  `json:"checklist"`
	Reminders    *[]models.ReminderTemplate `json:"reminders"`
	IsActive     *bool                      `json:"is_active"`
}

// Update applies partial updates to stages keyed by Key, all or nothing.
// An unknown key is NotFound; a malformed payload is a Validation error.
// The resulting set of active stages must still have distinct order indices.
func Update(db *gorm.DB, updates []UpdateOpts) error {
	if len(updates) == 0 {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var stages []models.Stage
		if err := tx.Order("order_index ASC").Find(&stages).Error; err != nil {
			return fmt.Errorf("stage: update: load: %w", err)
		}
		index := make(map[string]int, len(stages))
		for i := range stages {
			index[stages[i].Key] = i
		}

		changed := make(map[string]bool)
		for _, u := range updates {
			i, ok := index[u.Key]
			if !ok {
				return errs.NotFound("stage %q not found", u.Key)
			}
			if err := validateUpdate(u); err != nil {
				return err
			}
			apply(&stages[i], u)
			changed[u.Key] = true
		}

		if _, err := NewCatalog(stages); err != nil {
			return errs.Validation("%v", err)
		}

		for i := range stages {
			if !changed[stages[i].Key] {
				continue
			}
			if err := tx.Select("owner_id", "assistant_ids", "sla_days", "sla_text", "checklist", "reminders", "is_active", "updated_at").
				Save(&stages[i]).Error; err != nil {
				return fmt.Errorf("stage: update %q: %w", stages[i].Key, err)
			}
		}
		return nil
	})
}

func validateUpdate(u UpdateOpts) error {
	if u.SLADays != nil && *u.SLADays < 0 {
		return errs.Validation("stage %q: sla_days must not be negative", u.Key)
	}
	if u.Checklist != nil {
		for i, label := range *u.Checklist {
			if label == "" {
				return errs.Validation("stage %q: checklist[%d] is empty", u.Key, i)
			}
		}
	}
	if u.Reminders != nil {
		for i, r := range *u.Reminders {
			if r.Label == "" {
				return errs.Validation("stage %q: reminders[%d].label is required", u.Key, i)
			}
		}
	}
	if u.AssistantIDs != nil {
		for i, id := range *u.AssistantIDs {
			if id == "" {
				return errs.Validation("stage %q: assistants[%d] is empty", u.Key, i)
			}
		}
	}
	return nil
}

func apply(st *models.Stage, u UpdateOpts) {
	if u.OwnerID != nil {
		if *u.OwnerID == "" {
			st.OwnerID = nil
		} else {
			id := *u.OwnerID
			st.OwnerID = &id
		}
	}
	if u.AssistantIDs != nil {
		st.AssistantIDs = append([]string{}, (*u.AssistantIDs)...)
	}
	if u.SLADays != nil {
		st.SLADays = *u.SLADays
	}
	if u.SLAText != nil {
		st.SLAText = *u.SLAText
	}
	if u.Checklist != nil {
		st.Checklist = append([]string{}, (*u.Checklist)...)
	}
	if u.Reminders != nil {
		st.Reminders = append([]models.ReminderTemplate{}, (*u.Reminders)...)
	}
	if u.IsActive != nil {
		st.IsActive = *u.IsActive
	}
}

// ConfigView is the administrative read of the workflow configuration.
type ConfigView struct {
	Stages         []models.Stage `json:"stages"`
	AvailableUsers []models.User  `json:"available_users"`
}

// Config returns every stage ordered by order index together with the users
// eligible to be assigned as owner or assistant.
func Config(db *gorm.DB) (*ConfigView, error) {
	var stages []models.Stage
	if err := db.Order("order_index ASC").Order("stage_key ASC").Find(&stages).Error; err != nil {
		return nil, fmt.Errorf("stage: config: %w", err)
	}
	users, err := directory.Assignable(db)
	if err != nil {
		return nil, fmt.Errorf("stage: config: %w", err)
	}
	return &ConfigView{Stages: stages, AvailableUsers: users}, nil
}
