package api

// User is the public view of an account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	CreatedAt   int64  `json:"createdAt"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// GroupMember is a group member with their display name resolved.
type GroupMember struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type Group struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	CreatedBy string        `json:"createdBy"`
	Members   []GroupMember `json:"members"`
	CreatedAt int64         `json:"createdAt"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
	// MemberEmails are added alongside the caller, who is always a member.
	MemberEmails []string `json:"memberEmails,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type AddMemberRequest struct {
	GroupID string `json:"groupId"`
	Email   string `json:"email"`
}

type AddMemberResponse struct {
	Group *Group `json:"group"`
}

// Item is a line of an itemized expense.
type Item struct {
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	AssignedTo  []string `json:"assignedTo,omitempty"`
}

// Split is one debtor's share of an expense.
type Split struct {
	ID     string  `json:"id"`
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
	IsPaid bool    `json:"isPaid"`
	PaidAt int64   `json:"paidAt,omitempty"`
}

type Transaction struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"ownerId"`
	GroupID     string  `json:"groupId,omitempty"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	CreatedAt   int64   `json:"createdAt"`
	Splits      []Split `json:"splits"`
}

// CreateExpenseRequest records an expense the caller paid. Participants are
// user IDs and may include the caller; when Items is empty the total is split
// equally between them.
type CreateExpenseRequest struct {
	GroupID      string   `json:"groupId,omitempty"`
	Description  string   `json:"description"`
	Total        float64  `json:"total"`
	Subtotal     float64  `json:"subtotal,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	Participants []string `json:"participants"`
	Items        []Item   `json:"items,omitempty"`
}

type CreateExpenseResponse struct {
	Transaction *Transaction `json:"transaction"`
}

// PendingSplit is an unpaid split seen from the caller's side.
type PendingSplit struct {
	ID               string  `json:"id"`
	TransactionID    string  `json:"transactionId"`
	DebtorID         string  `json:"debtorId"`
	CreditorID       string  `json:"creditorId"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	Description      string  `json:"description"`
	GroupID          string  `json:"groupId,omitempty"`
	CreatedAt        int64   `json:"createdAt"`
	CounterpartyName string  `json:"counterpartyName"`
	IsPaid           bool    `json:"isPaid"`
}

type ListPendingSplitsRequest struct {
	GroupID string `json:"groupId,omitempty"`
}

type ListPendingSplitsResponse struct {
	Splits []*PendingSplit `json:"splits"`
}

type SettleSplitRequest struct {
	SplitID string `json:"splitId"`
}

type SettleSplitResponse struct {
	Split *PendingSplit `json:"split"`
}

// Payment is one transfer of a settlement plan.
type Payment struct {
	From     string   `json:"from"`
	FromName string   `json:"fromName"`
	To       string   `json:"to"`
	ToName   string   `json:"toName"`
	Amount   float64  `json:"amount"`
	SplitIDs []string `json:"splitIds"`
}

type GetSettlementPlanRequest struct {
	GroupID  string `json:"groupId,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// GetSettlementPlanResponse is the simplified plan for the caller's pending
// splits. TotalOwed and TotalOwedToMe are the caller's gross exposure before
// cancellation, in Currency.
type GetSettlementPlanResponse struct {
	Currency      string     `json:"currency"`
	Payments      []*Payment `json:"payments"`
	TotalOwed     float64    `json:"totalOwed"`
	TotalOwedToMe float64    `json:"totalOwedToMe"`
}

type Settlement struct {
	ID         string   `json:"id"`
	GroupID    string   `json:"groupId,omitempty"`
	FromUserID string   `json:"fromUserId"`
	ToUserID   string   `json:"toUserId"`
	Amount     float64  `json:"amount"`
	Currency   string   `json:"currency"`
	SplitIDs   []string `json:"splitIds"`
	CreatedAt  int64    `json:"createdAt"`
	CreatedBy  string   `json:"createdBy"`
	Note       string   `json:"note,omitempty"`
}

type RecordSettlementRequest struct {
	GroupID    string   `json:"groupId,omitempty"`
	FromUserID string   `json:"fromUserId"`
	ToUserID   string   `json:"toUserId"`
	Amount     float64  `json:"amount"`
	Currency   string   `json:"currency,omitempty"`
	SplitIDs   []string `json:"splitIds,omitempty"`
	Note       string   `json:"note,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
	// SplitsSettled counts the splits that were still pending.
	SplitsSettled int64 `json:"splitsSettled"`
}

// ListSettlementsRequest lists a group's settlements, or the caller's own when
// GroupID is empty.
type ListSettlementsRequest struct {
	GroupID string `json:"groupId,omitempty"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}
