package savedsearch

import "time"

// WebUser is a visitor identified only by email.
type WebUser struct {
	WebUserID int64  `gorm:"column:web_user_id;primaryKey" json:"web_user_id"`
	Email     string `gorm:"column:email;not null;uniqueIndex" json:"email"`
}

func (WebUser) TableName() string { return "web_user" }

// SavedSearch is a user's stored set of search inputs. Rows are created on
// demand and never updated.
type SavedSearch struct {
	SavedSearchID     int64     `gorm:"column:saved_search_id;primaryKey" json:"saved_search_id"`
	WebUserID         int64     `gorm:"column:web_user_id;not null;index" json:"-"`
	SearchName        string    `gorm:"column:search_name;not null" json:"search_name"`
	FullText          string    `gorm:"column:full_text" json:"full_text"`
	FullTextBool      int       `gorm:"column:full_text_bool" json:"full_text_bool"`
	Sponsors          string    `gorm:"column:sponsors" json:"sponsors"`
	SponsorsBool      int       `gorm:"column:sponsors_bool" json:"sponsors_bool"`
	Conditions        string    `gorm:"column:conditions" json:"conditions"`
	ConditionsBool    int       `gorm:"column:conditions_bool" json:"conditions_bool"`
	Interventions     string    `gorm:"column:interventions" json:"interventions"`
	InterventionsBool int       `gorm:"column:interventions_bool" json:"interventions_bool"`
	PhaseIDs          string    `gorm:"column:phase_ids" json:"phase_ids"`
	StudyTypeIDs      string    `gorm:"column:study_type_ids" json:"study_type_ids"`
	Enrollment        int       `gorm:"column:enrollment" json:"enrollment"`
	EmailTo           string    `gorm:"column:email_to" json:"email_to"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
}

func (SavedSearch) TableName() string { return "saved_search" }

// identity is the full tuple a saved search is deduplicated on.
func (s *SavedSearch) identity() map[string]interface{} {
	return map[string]interface{}{
		"web_user_id":        s.WebUserID,
		"search_name":        s.SearchName,
		"full_text":          s.FullText,
		"full_text_bool":     s.FullTextBool,
		"conditions":         s.Conditions,
		"conditions_bool":    s.ConditionsBool,
		"sponsors":           s.Sponsors,
		"sponsors_bool":      s.SponsorsBool,
		"interventions":      s.Interventions,
		"interventions_bool": s.InterventionsBool,
		"phase_ids":          s.PhaseIDs,
		"study_type_ids":     s.StudyTypeIDs,
		"enrollment":         s.Enrollment,
		"email_to":           s.EmailTo,
	}
}

// SaveResult is the response of a save; the count is always 1 because an
// identical search resolves to the existing row.
type SaveResult struct {
	NumSavedSearches int `json:"num_saved_searches"`
}
