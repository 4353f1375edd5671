package model

type ReservationRequest struct {
	RequestID string `json:"request_id,omitempty" validate:"omitempty,max=64"`
	Requester string `json:"requester" validate:"required,max=128"`
	SlotIDs   []int  `json:"slot_ids" validate:"required,min=1,unique,dive,slot_index"`
}

type ConfirmationRequest struct {
	RequestID string `json:"request_id,omitempty" validate:"omitempty,max=64"`
	Requester string `json:"requester" validate:"required,max=128"`
	HoldID    string `json:"hold_id" validate:"required,max=64"`
}
