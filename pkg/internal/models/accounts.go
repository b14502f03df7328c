package models

// Identity is an already-resolved voter account, produced by the token
// reader. The vote path trusts it as-is and never sees raw credentials.
type Identity struct {
	AccountID uint   `json:"account_id"`
	Username  string `json:"username"`
}
