package subscription

// Identity carries the candidate lookup keys for one caller. Email is the
// stable primary key; the rest exist only for lookup fallback.
type Identity struct {
	Email           string `json:"email"`
	UserID          string `json:"user_id,omitempty"`
	LegacyAccountID string `json:"legacy_account_id,omitempty"`
}

func (i Identity) IsEmpty() bool {
	return i.Email == "" && i.UserID == "" && i.LegacyAccountID == ""
}
