package stage

import "github.com/Chatblanccc/PersonnelManagement/internal/models"

// Defaults returns the built-in stage set seeded into an empty catalog.
func Defaults() []models.Stage {
	return []models.Stage{
		{
			Key:         "entry",
			Name:        "Entry preparation",
			Description: "Collect identity, degree and teaching certificate documents and open the personnel file.",
			OrderIndex:  1,
			SLADays:     2,
			SLAText:     "Entry documents verified within 2 working days",
			Checklist: []string{
				"Verify scanned ID card and degree certificates",
				"Generate draft contract and send for proofreading",
				"Start medical examination and background check",
			},
			Reminders: []models.ReminderTemplate{
				{Label: "Entry document check", OffsetDays: -1, Channels: []string{"wechat"}, Notes: "Ask the entry clerk to complete missing information"},
			},
			IsActive: true,
		},
		{
			Key:         "qualification",
			Name:        "Qualification review",
			Description: "Review extracted contract fields and manually confirm low-confidence values.",
			OrderIndex:  2,
			SLADays:     3,
			SLAText:     "Filing review completed within 3 working days",
			Checklist: []string{
				"Check fields with recognition confidence below 80%",
				"Flag certificates that need supplementing",
				"Update the ledger status",
			},
			IsActive: true,
		},
		{
			Key:         "probation",
			Name:        "Probation evaluation",
			Description: "Track probation performance, complete the evaluation form and submit a confirmation recommendation.",
			OrderIndex:  3,
			SLADays:     90,
			SLAText:     "Evaluation completed within 90 days of entry",
			Checklist: []string{
				"Collect teaching feedback and lesson recordings",
				"Score teaching quality",
				"Submit confirmation or extension recommendation",
			},
			Reminders: []models.ReminderTemplate{
				{Label: "Probation checkpoint", OffsetDays: -15, Channels: []string{"email", "wechat"}, Notes: "Ask for the evaluation form"},
				{Label: "Probation ending", OffsetDays: -5, Channels: []string{"email"}},
			},
			IsActive: true,
		},
		{
			Key:         "signature",
			Name:        "Contract signature",
			Description: "Confirm the final contract text, complete electronic signature and archive it encrypted.",
			OrderIndex:  4,
			SLADays:     5,
			SLAText:     "Signed within 5 days of a passed evaluation",
			Checklist: []string{
				"Export the final watermarked contract",
				"Start the electronic signature flow",
				"Upload encrypted copy and archive",
			},
			IsActive: true,
		},
		{
			Key:         "archive",
			Name:        "Archive review",
			Description: "Final review and archival of the contract documents.",
			OrderIndex:  5,
			SLADays:     7,
			SLAText:     "Archived within one week of signature",
			Checklist: []string{
				"Check contract number and archive details",
				"Sync the ledger status",
				"Update the archive log",
			},
			IsActive: true,
		},
		{
			Key:         "renewal",
			Name:        "Renewal tracking",
			Description: "Watch contract expiry and start renewal follow-up ahead of time.",
			OrderIndex:  6,
			SLADays:     90,
			SLAText:     "Renewal reminder sent 90 days before expiry",
			Checklist: []string{
				"Check the upcoming expiry list",
				"Send renewal notice and confirmation form",
				"Update renewal follow-up status",
			},
			Reminders: []models.ReminderTemplate{
				{Label: "Renewal in 90 days", OffsetDays: -90, Channels: []string{"wechat"}},
				{Label: "Renewal in 30 days", OffsetDays: -30, Channels: []string{"email", "sms"}},
				{Label: "Renewal in 7 days", OffsetDays: -7, Channels: []string{"sms"}},
			},
			IsActive: true,
		},
	}
}
